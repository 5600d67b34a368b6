package fleet

// ModuleAssociation links one device with one analytics module. The
// (device_id, module_id) pair is unique while the association exists.
type ModuleAssociation struct {
	ID       int64 `json:"id"`
	DeviceID int64 `json:"device_id"`
	ModuleID int64 `json:"module_id"`
}
