package domain

// WagerWorkplace resolves the workplace a wager belongs to: its own
// WorkplaceID, else the creator's. creator may be nil when the wager has no
// owner or the owner no longer exists. The empty string means unresolved.
func WagerWorkplace(w *Wager, creator *User) string {
	if w.WorkplaceID != nil && *w.WorkplaceID != "" {
		return *w.WorkplaceID
	}
	if creator != nil && w.CreatedByUser(creator.ID) {
		return creator.WorkplaceID
	}
	return ""
}

// CanManage reports whether user may close, cancel or delete the wager.
//
// Admin rights are scoped to a workplace: an admin manages every wager of
// their own workplace and nothing outside it, including wagers they created
// elsewhere. Anyone else manages only the wagers they created.
// wagerWorkplace is the result of WagerWorkplace.
func CanManage(w *Wager, user *User, wagerWorkplace string) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		if wagerWorkplace != "" {
			return wagerWorkplace == user.WorkplaceID
		}
		return w.CreatedByUser(user.ID)
	}
	return w.CreatedByUser(user.ID)
}
