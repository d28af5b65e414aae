package fetch

import "errors"

// TransientError marks failures worth retrying: timeouts, 5xx responses,
// connection resets. After retries are exhausted it still surfaces so the
// scheduler can count the cycle as failed.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient fetch error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks failures that retrying cannot fix: 4xx responses
// other than 429, malformed URLs, unparseable responses.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent fetch error: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
