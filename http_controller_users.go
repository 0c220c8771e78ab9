package users

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserController exposes the administration and self-service user
// endpoints.
type UserController struct {
	admin  *UserAdmin
	logger Logger
}

func NewUserController(admin *UserAdmin) *UserController {
	return &UserController{
		admin:  admin,
		logger: defLogger{},
	}
}

func (u *UserController) WithLogger(logger Logger) *UserController {
	if logger != nil {
		u.logger = logger
	}
	return u
}

// RegisterUserRoutes mounts the /users endpoints behind the gate. The
// profile routes must register before /:id so they are not captured as
// an id parameter.
func RegisterUserRoutes(app fiber.Router, controller *UserController, gate, adminGate, adminOrOwnerGate fiber.Handler) {
	group := app.Group("/users", gate)

	group.Get("/profile", controller.GetProfile)
	group.Put("/profile", controller.UpdateProfile)
	group.Delete("/account", controller.DeleteAccount)

	group.Get("/", adminGate, controller.List)
	group.Post("/", adminGate, controller.Create)

	group.Get("/:id", adminOrOwnerGate, controller.Get)
	group.Put("/:id", adminOrOwnerGate, controller.Update)
	group.Delete("/:id", adminGate, controller.Delete)
}

func (u *UserController) GetProfile(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	return respondSuccess(c, fiber.StatusOK, "Profile retrieved successfully", fiber.Map{
		"user": user,
	})
}

type UpdateProfilePayload struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, 200)),
	)
}

func (u *UserController) UpdateProfile(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	payload := new(UpdateProfilePayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	updated, err := u.admin.UpdateProfile(c.Context(), user, payload.FirstName, payload.LastName)
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{
		"user": updated,
	})
}

func (u *UserController) DeleteAccount(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return ErrUnauthorized
	}

	if err := u.admin.DeactivateAccount(c.Context(), user); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Account deactivated successfully", nil)
}

func (u *UserController) List(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return ErrUnauthorized
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	records, pagination, err := u.admin.List(c.Context(), actor, page, limit)
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "Users retrieved successfully", fiber.Map{
		"users":      records,
		"pagination": pagination,
	})
}

type CreateUserPayload struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.In(string(RoleUser), string(RoleAdmin))),
	)
}

func (u *UserController) Create(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return ErrUnauthorized
	}

	payload := new(CreateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	role, ok := ParseRole(payload.Role)
	if !ok {
		role = RoleUser
	}

	created, err := u.admin.Create(c.Context(), actor, UserCreate{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      role,
	})
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusCreated, "User created successfully", fiber.Map{
		"user": created,
	})
}

func (u *UserController) Get(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return ErrUnauthorized
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	user, err := u.admin.Get(c.Context(), actor, id)
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

type UpdateUserPayload struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

func (r UpdateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.In(string(RoleUser), string(RoleAdmin))),
	)
}

func (u *UserController) Update(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return ErrUnauthorized
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	payload := new(UpdateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
			WithCode(fiber.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return validationError(err)
	}

	update := UserUpdate{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}
	if payload.Role != nil {
		if role, ok := ParseRole(*payload.Role); ok {
			update.Role = &role
		}
	}

	updated, err := u.admin.Update(c.Context(), actor, id, update)
	if err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "User updated successfully", fiber.Map{
		"user": updated,
	})
}

func (u *UserController) Delete(c *fiber.Ctx) error {
	actor := CurrentUser(c)
	if actor == nil {
		return ErrUnauthorized
	}

	id, err := parseUserID(c)
	if err != nil {
		return err
	}

	if err := u.admin.Delete(c.Context(), actor, id); err != nil {
		return err
	}

	return respondSuccess(c, fiber.StatusOK, "User deleted successfully", nil)
}

func parseUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, ErrUserNotFound
	}
	return id, nil
}
