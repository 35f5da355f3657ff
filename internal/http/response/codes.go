package response

const (
	CodeOK                 = 0
	CodeBadRequest         = 400
	CodeNotFound           = 404
	CodeConflict           = 409
	CodeTooManyRequests    = 429
	CodeInternal           = 500
	CodeServiceUnavailable = 503
)
