// knoflo/controllers/user.go
package controllers

import (
	"context"

	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

func (c *UserController) GetUser(ctx context.Context, id int) (*models.User, error) {
	return c.dao.GetUserByID(ctx, id)
}

func (c *UserController) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return c.dao.GetAllUsers(ctx)
}

func (c *UserController) CreateUser(ctx context.Context, username, email string, fullName *string) (*models.User, error) {
	return c.dao.CreateUser(ctx, username, email, fullName)
}

func (c *UserController) UpdateUser(ctx context.Context, id int, username, email, fullName, imageURL *string) (*models.User, error) {
	updates := map[string]interface{}{}
	if username != nil {
		updates["username"] = *username
	}
	if email != nil {
		updates["email"] = *email
	}
	if fullName != nil {
		updates["full_name"] = *fullName
	}
	if imageURL != nil {
		updates["image_url"] = *imageURL
	}
	if len(updates) == 0 {
		return c.dao.GetUserByID(ctx, id)
	}
	return c.dao.UpdateUser(ctx, id, updates)
}
