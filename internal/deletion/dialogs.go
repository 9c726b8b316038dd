package deletion

// Option is one button of a confirmation dialog.
type Option struct {
	Label       string `json:"label"`
	Input       Input  `json:"input"`
	Destructive bool   `json:"destructive,omitempty"`
}

// Dialog is what the UI shows while the flow waits in a confirmation state.
type Dialog struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Options []Option `json:"options"`
}

// FailureAlert is shown once when the request email could not be drafted.
const FailureAlert = "Failed to submit deletion request. Please try again."

var cancelOption = Option{Label: "Cancel", Input: InputCancel}

var dialogs = map[State]Dialog{
	StateConfirmIntent: {
		Title:   "Delete Account",
		Message: "Are you sure you want to delete your account? This action cannot be undone.",
		Options: []Option{cancelOption, {Label: "Delete", Input: InputDelete, Destructive: true}},
	},
	StateConfirmSend: {
		Title:   "Send Account Deletion Email",
		Message: "Your account deletion request email has been drafted. Please tap 'Send Email' to open the email app and send the request.",
		Options: []Option{{Label: "Send Email", Input: InputSendEmail}, cancelOption},
	},
	StateConfirmLogout: {
		Title:   "Logout Confirmation",
		Message: "After sending the email, you'll be logged out. Confirm to proceed.",
		Options: []Option{{Label: "Confirm Logout", Input: InputConfirmLogout}, cancelOption},
	},
}

// DialogFor returns the dialog of a confirmation state. ok is false for other states.
func DialogFor(s State) (Dialog, bool) {
	d, ok := dialogs[s]
	if !ok {
		return Dialog{}, false
	}
	d.Options = append([]Option(nil), d.Options...)
	return d, true
}
