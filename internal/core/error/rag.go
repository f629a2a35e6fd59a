package errx

import "net/http"

// WrapRetrieval marks a failure in the retrieval stage: the document store is
// unreachable, rejected the query, or the query embedding could not be
// computed. Retrieval failures are never retried by the core.
func WrapRetrieval(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, RetrievalErrorMessage)
}

// WrapGeneration marks a failed or unusable language model completion.
func WrapGeneration(err error) *Error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, GenerationErrorMessage)
}

// IsRetrieval reports whether err originated in the retrieval stage.
func IsRetrieval(err error) bool {
	return messageIs(err, RetrievalErrorMessage)
}

// IsGeneration reports whether err originated in a model completion.
func IsGeneration(err error) bool {
	return messageIs(err, GenerationErrorMessage)
}
