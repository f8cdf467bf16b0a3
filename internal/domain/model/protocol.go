package model

// Tokens shared by the buttons/commands the bot emits and the handlers that consume them.
const (
	CommandStart  = "start"
	CommandPost   = "post"
	CommandCancel = "cancel"
	CommandHelp   = "help"

	CallbackOptIn       = "xa"
	CallbackApprovePost = "approve_post_send"
)
