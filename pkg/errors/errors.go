package errors

import (
	"github.com/pingcap/errors"
)

// Wrap generates a new error based on the normalized error, wrapping the
// original cause inside. Returns nil if cause is nil.
func Wrap(rfcError *errors.Error, cause error, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return rfcError.Wrap(cause).GenWithStackByArgs(args...)
}

// all driver-side errors
var (
	// general errors
	ErrUnknown = errors.Normalize(
		"unknown error",
		errors.RFCCodeText("SPARK:ErrUnknown"),
	)
	ErrInvalidArgument = errors.Normalize(
		"invalid argument: %s",
		errors.RFCCodeText("SPARK:ErrInvalidArgument"),
	)

	// resource profile related errors
	ErrResourceProfileNotFound = errors.Normalize(
		"resource profile %d was not found, profiles must be registered before use",
		errors.RFCCodeText("SPARK:ErrResourceProfileNotFound"),
	)
	ErrResourceProfileUnsupported = errors.Normalize(
		"resource profiles are only supported on a YARN cluster with dynamic allocation enabled: %s",
		errors.RFCCodeText("SPARK:ErrResourceProfileUnsupported"),
	)
	ErrDuplicateResourceName = errors.Normalize(
		"duplicate resource name: %s",
		errors.RFCCodeText("SPARK:ErrDuplicateResourceName"),
	)
	ErrReservedProfileID = errors.Normalize(
		"profile id %d is reserved for the default profile",
		errors.RFCCodeText("SPARK:ErrReservedProfileID"),
	)

	// config related errors
	ErrMasterConfigParseFlagSet = errors.Normalize(
		"parse config flag set failed",
		errors.RFCCodeText("SPARK:ErrMasterConfigParseFlagSet"),
	)
	ErrMasterConfigInvalidFlag = errors.Normalize(
		"'%s' is an invalid flag",
		errors.RFCCodeText("SPARK:ErrMasterConfigInvalidFlag"),
	)
	ErrMasterDecodeConfigFile = errors.Normalize(
		"decode config file failed",
		errors.RFCCodeText("SPARK:ErrMasterDecodeConfigFile"),
	)
	ErrMasterConfigUnknownItem = errors.Normalize(
		"master config contains unknown configuration options: %s",
		errors.RFCCodeText("SPARK:ErrMasterConfigUnknownItem"),
	)
)
