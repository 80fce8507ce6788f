package models

// Status is the single outstanding DBS action for a person.
type Status string

const (
	StatusOK                      Status = "ok"
	StatusDobMismatch             Status = "dob_mismatch"
	StatusNeedAskIfCapita         Status = "need_ask_if_capita"
	StatusNeedAskIfOnUpdate       Status = "need_ask_if_on_update"
	StatusNeedApplyForNew         Status = "need_apply_for_new"
	StatusNeedUpdateServiceSignUp Status = "need_update_service_sign_up"
	StatusNeedUpdateServiceCheck  Status = "need_update_service_check"

	// StatusLookupFailed means the registry could not be consulted. The
	// workflow should retry rather than treat the person as not on file.
	StatusLookupFailed Status = "lookup_failed"
)

func (s Status) String() string { return string(s) }

// RequiresExternalAction reports whether the user must act outside the form
// (apply for a certificate, join the update service) before continuing.
func (s Status) RequiresExternalAction() bool {
	return s == StatusNeedApplyForNew || s == StatusNeedUpdateServiceSignUp
}
