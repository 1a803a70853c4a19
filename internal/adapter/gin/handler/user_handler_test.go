package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"user-crud-service/internal/adapter/gin/middleware"
	usecase "user-crud-service/internal/usecase/user"
	apperrors "user-crud-service/pkg/errors"
)

// MockUserUsecase is a testify mock of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.CreateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.GetUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.GetUserResponse), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.UpdateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UpdateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) (*usecase.DeleteUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DeleteUserResponse), args.Error(1)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context, req usecase.ListUsersRequest) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	h := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", middleware.IDParam("id"), h.GetUser)
	r.PUT("/users/:id", middleware.IDParam("id"), h.UpdateUser)
	r.DELETE("/users/:id", middleware.IDParam("id"), h.DeleteUser)
	return r, mockUsecase
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, usecase.ListUsersRequest{}).Return(&usecase.ListUsersResponse{
			Users: []usecase.User{
				{ID: 1, Name: "Ada", Email: "ada@x.com"},
				{ID: 2, Name: "Grace", Email: "grace@x.com"},
			},
		}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":1,"name":"Ada","email":"ada@x.com"},{"id":2,"name":"Grace","email":"grace@x.com"}]`, w.Body.String())
	})

	t.Run("Empty", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{}}, nil)

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("InternalError", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("ListUsers", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewInternalError("Internal server error", errors.New("pq: relation does not exist")))

		w := do(r, http.MethodGet, "/users", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "relation")
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 1}).
			Return(&usecase.GetUserResponse{User: usecase.User{ID: 1, Name: "Ada", Email: "ada@x.com"}}, nil)

		w := do(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"name":"Ada","email":"ada@x.com"}`, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 42}).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodGet, "/users/42", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})

	t.Run("InvalidID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodGet, "/users/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Ada", Email: "ada@x.com"}).
			Return(&usecase.CreateUserResponse{User: usecase.User{ID: 1, Name: "Ada", Email: "ada@x.com"}}, nil)

		w := do(r, http.MethodPost, "/users", `{"name":"Ada","email":"ada@x.com"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":1,"name":"Ada","email":"ada@x.com"}`, w.Body.String())
	})

	t.Run("MalformedBody", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodPost, "/users", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"Invalid request body"`)
		mockUsecase.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodPost, "/users", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("WrongFieldType", func(t *testing.T) {
		r, _ := setupTest(t)

		w := do(r, http.MethodPost, "/users", `{"name":1,"email":"ada@x.com"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("", "name is required"))

		w := do(r, http.MethodPost, "/users", `{"email":"ada@x.com"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"validation failed: name is required"}`, w.Body.String())
	})

	t.Run("EmailTaken", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrEmailTaken)

		w := do(r, http.MethodPost, "/users", `{"name":"Ada","email":"ada@x.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"Email already exists"}`, w.Body.String())
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1, Name: "Ada L", Email: "ada@y.com"}).
			Return(&usecase.UpdateUserResponse{User: usecase.User{ID: 1, Name: "Ada L", Email: "ada@y.com"}}, nil)

		w := do(r, http.MethodPut, "/users/1", `{"name":"Ada L","email":"ada@y.com"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"name":"Ada L","email":"ada@y.com"}`, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodPut, "/users/9", `{"name":"X","email":"x@y.com"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})

	t.Run("EmailTaken", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrEmailTaken)

		w := do(r, http.MethodPut, "/users/1", `{"name":"X","email":"taken@y.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := do(r, http.MethodPut, "/users/1", `not json`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 7}).
			Return(&usecase.DeleteUserResponse{ID: 7}, nil)

		w := do(r, http.MethodDelete, "/users/7", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User 7 deleted"}`, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, mock.Anything).Return(nil, apperrors.ErrUserNotFound)

		w := do(r, http.MethodDelete, "/users/7", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})
}

type fakeDatabaseInfo struct {
	pingErr    error
	version    string
	versionErr error
}

func (f fakeDatabaseInfo) Ping(context.Context) error { return f.pingErr }

func (f fakeDatabaseInfo) Version(context.Context) (string, error) { return f.version, f.versionErr }

func setupHealth(t *testing.T, db DatabaseInfo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(db, "user-crud-service", zaptest.NewLogger(t))
	r := gin.New()
	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	return r
}

func TestHealthHandler(t *testing.T) {
	t.Run("Index", func(t *testing.T) {
		r := setupHealth(t, fakeDatabaseInfo{version: "PostgreSQL 16.2"})

		w := do(r, http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Hello from user-crud-service!","postgres_version":"PostgreSQL 16.2"}`, w.Body.String())
	})

	t.Run("IndexVersionError", func(t *testing.T) {
		r := setupHealth(t, fakeDatabaseInfo{versionErr: errors.New("conn closed")})

		w := do(r, http.MethodGet, "/", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "conn closed")
	})

	t.Run("Healthy", func(t *testing.T) {
		r := setupHealth(t, fakeDatabaseInfo{})

		w := do(r, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"user-crud-service"}`, w.Body.String())
	})

	t.Run("Unhealthy", func(t *testing.T) {
		r := setupHealth(t, fakeDatabaseInfo{pingErr: errors.New("down")})

		w := do(r, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
