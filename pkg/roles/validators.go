package roles

type PermissionInput struct {
	Resource  string `json:"resource" validate:"required"`
	Operation string `json:"operation" validate:"required"`
}

type CreateRolePayload struct {
	Name        string            `json:"name" validate:"required,min=1,max=50"`
	Permissions []PermissionInput `json:"permissions" validate:"dive"`
}

type SetPermissionsPayload struct {
	Permissions []PermissionInput `json:"permissions" validate:"dive"`
}
