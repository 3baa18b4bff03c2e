package services

import "backend_smartiv/models"

// Actor аутентифицированный пользователь, от имени которого выполняется операция
type Actor struct {
	UserID uint        `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// CanManageCatalog изменять каталог могут только администраторы
func (a Actor) CanManageCatalog() bool {
	return a.Role == models.RoleSuperAdmin || a.Role == models.RoleAdmin
}

func requireCatalogManager(actor Actor, op string) error {
	if !actor.CanManageCatalog() {
		return forbidden(op)
	}
	return nil
}
