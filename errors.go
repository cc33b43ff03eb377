package vidbatch

import "errors"

var (
	// ErrConfiguration is returned when loader settings are inconsistent with
	// each other or with the dataset, such as a dataset size not divisible by
	// the worker count
	ErrConfiguration = errors.New("configuration error")
	// ErrShape is returned when samples assembled into one batch disagree on
	// a dimension that can not be padded
	ErrShape = errors.New("shape error")
	// ErrData is returned for malformed or missing record fields
	ErrData = errors.New("data error")
	// ErrEndOfEpoch signals that an iterator has produced every batch of the
	// current epoch.  It is an expected control signal and not a failure,
	// call Reset() to start the next epoch
	ErrEndOfEpoch = errors.New("end of epoch")
)
