package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank or missing object query.
	ErrEmptyQuery = errors.New("object query must not be empty")

	// ErrMissingImage signals that neither an image file nor a base64 string was provided.
	ErrMissingImage = errors.New("either image file or base64 image must be provided")
	// ErrConflictingInput signals that both an image file and a base64 string were provided.
	ErrConflictingInput = errors.New("provide either image file or base64 image, not both")
	// ErrUnsupportedFormat signals a content type outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrPayloadTooLarge signals an upload above the size ceiling.
	ErrPayloadTooLarge = errors.New("image exceeds maximum size")
	// ErrInvalidBase64 signals undecodable base64 image data.
	ErrInvalidBase64 = errors.New("invalid base64 image data")

	// ErrStaging signals a failure to write the staged upload file.
	ErrStaging = errors.New("failed to stage uploaded image")

	// ErrNoConfidentPose signals that the localization engine ran but produced
	// no confident pose. This is a soft failure, not an infrastructure error.
	ErrNoConfidentPose = errors.New("no confident pose")
	// ErrLocalizerUnavailable signals that the localization engine is not reachable.
	ErrLocalizerUnavailable = errors.New("localization engine unavailable")
	// ErrLocalizeTimeout signals that the localization call exceeded its deadline.
	ErrLocalizeTimeout = errors.New("localization timed out")
)

// IsSoftLocalizationFailure reports whether err is a localization outcome the
// workflow should report in-band (HTTP 200 with a failure status) rather than
// surface as a transport error.
func IsSoftLocalizationFailure(err error) bool {
	return errors.Is(err, ErrNoConfidentPose)
}
