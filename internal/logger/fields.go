package logger

const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldUserID         = "user_id"
	FieldPostID         = "post_id"
	FieldCommentID      = "comment_id"
	FieldConversationID = "conversation_id"

	FieldService   = "service"
	FieldComponent = "component"
)
