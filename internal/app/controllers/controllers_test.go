package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/validation"
)

var (
	adminRequester = auth.Requester{ID: 1, Role: models.RoleAdmin}
	userRequester  = auth.Requester{ID: 7, Role: models.RoleUser}
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Register(v)
	}
}

// as stands in for the auth middleware and identifies the caller
func as(r auth.Requester) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, r.ID)
		c.Set(middleware.ContextUserRole, r.Role)
		c.Next()
	}
}

// envelope is dto.APIResponse with the payload left raw
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Errors     []dto.FieldError    `json:"errors"`
	Error      *dto.ErrorDetail    `json:"error"`
	Pagination *dto.PaginationInfo `json:"pagination"`
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, body string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func contentRouter(svc *MockContentService, requester auth.Requester) *gin.Engine {
	ctrl := NewContentController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/content", as(requester))
	g.POST("", ctrl.UploadContent)
	g.GET("", ctrl.ListContent)
	g.GET("/:id", ctrl.GetContent)
	g.PUT("/:id/approve", ctrl.ApproveContent)
	g.PUT("/:id/reject", ctrl.RejectContent)
	return r
}

func TestUploadContent(t *testing.T) {
	fields := map[string]string{
		"title":       "Data Structures notes",
		"description": "Unit 1 to 3",
		"category":    "academic",
		"tags":        "dsa, notes",
	}

	t.Run("stores the upload", func(t *testing.T) {
		svc := new(MockContentService)
		svc.On("UploadContent", mock.Anything, userRequester,
			mock.MatchedBy(func(u *filestorage.Upload) bool { return u.Filename == "notes.txt" && u.Size > 0 }),
			mock.MatchedBy(func(req *dto.UploadContentRequest) bool {
				return req.Title == "Data Structures notes" && req.Tags == "dsa, notes"
			})).
			Return(&models.Content{ID: 5, Title: "Data Structures notes", Status: models.ContentStatusPending}, nil)

		body, contentType := multipartBody(t, fields, "file", "notes.txt", "plain text notes")
		req := httptest.NewRequest(http.MethodPost, "/content", body)
		req.Header.Set("Content-Type", contentType)
		w, env := serve(contentRouter(svc, userRequester), req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		assert.Contains(t, env.Message, "pending approval")
		svc.AssertExpectations(t)
	})

	t.Run("requires a file", func(t *testing.T) {
		svc := new(MockContentService)
		body, contentType := multipartBody(t, fields, "", "", "")
		req := httptest.NewRequest(http.MethodPost, "/content", body)
		req.Header.Set("Content-Type", contentType)
		w, env := serve(contentRouter(svc, userRequester), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file uploaded", env.Message)
		svc.AssertNotCalled(t, "UploadContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reports missing fields", func(t *testing.T) {
		svc := new(MockContentService)
		body, contentType := multipartBody(t, map[string]string{"category": "academic"}, "file", "a.txt", "x")
		req := httptest.NewRequest(http.MethodPost, "/content", body)
		req.Header.Set("Content-Type", contentType)
		w, env := serve(contentRouter(svc, userRequester), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
		assert.NotEmpty(t, env.Errors)
	})
}

func TestUploadContent_TooLarge(t *testing.T) {
	fields := map[string]string{"title": "Lecture", "description": "Recording", "category": "academic"}

	t.Run("body over the limit", func(t *testing.T) {
		svc := new(MockContentService)
		limited := gin.New()
		limited.Use(middleware.BodyLimit(256), as(userRequester))
		limited.POST("/content", NewContentController(svc, zerolog.Nop()).UploadContent)

		body, contentType := multipartBody(t, fields, "file", "lecture.mp4", strings.Repeat("x", 1024))
		req := httptest.NewRequest(http.MethodPost, "/content", body)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = -1
		w, env := serve(limited, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrorCodeFileTooLarge, env.Error.Code)
		svc.AssertNotCalled(t, "UploadContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("file over the service cap", func(t *testing.T) {
		svc := new(MockContentService)
		svc.On("UploadContent", mock.Anything, userRequester, mock.Anything, mock.Anything).
			Return(nil, apperrors.NewFileTooLargeError(1<<20))

		body, contentType := multipartBody(t, fields, "file", "lecture.mp4", "mp4")
		req := httptest.NewRequest(http.MethodPost, "/content", body)
		req.Header.Set("Content-Type", contentType)
		w, env := serve(contentRouter(svc, userRequester), req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrorCodeFileTooLarge, env.Error.Code)
	})
}

func TestListContent_Pagination(t *testing.T) {
	svc := new(MockContentService)
	svc.On("ListContent", mock.Anything, userRequester,
		mock.MatchedBy(func(req *dto.ContentListRequest) bool { return req.Category == "academic" }), 2, 10).
		Return(models.Page[models.Content]{Items: []models.Content{{ID: 11}, {ID: 12}}, Total: 25}, nil)

	w, env := serve(contentRouter(svc, userRequester),
		httptest.NewRequest(http.MethodGet, "/content?category=academic&page=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, dto.PaginationInfo{CurrentPage: 2, TotalPages: 3, TotalItems: 25, ItemsPerPage: 10}, *env.Pagination)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	assert.Contains(t, items[0], "age")
}

func TestGetContent_InvalidID(t *testing.T) {
	svc := new(MockContentService)
	w, env := serve(contentRouter(svc, userRequester), httptest.NewRequest(http.MethodGet, "/content/abc", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeBadRequest, env.Error.Code)
	svc.AssertNotCalled(t, "GetContentByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestModeration(t *testing.T) {
	t.Run("approve twice", func(t *testing.T) {
		svc := new(MockContentService)
		svc.On("ApproveContent", mock.Anything, adminRequester, int64(5)).
			Return(nil, apperrors.NewCustomError(apperrors.ErrAlreadyApproved, "Content is already approved"))

		w, env := serve(contentRouter(svc, adminRequester), httptest.NewRequest(http.MethodPut, "/content/5/approve", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeAlreadyApproved, env.Error.Code)
	})

	t.Run("reject without body reaches the service", func(t *testing.T) {
		svc := new(MockContentService)
		svc.On("RejectContent", mock.Anything, adminRequester, int64(5), "").
			Return(nil, apperrors.NewValidationError("Rejection reason is required", map[string]string{"reason": "is required"}))

		w, env := serve(contentRouter(svc, adminRequester), httptest.NewRequest(http.MethodPut, "/content/5/reject", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []dto.FieldError{{Field: "reason", Message: "is required"}}, env.Errors)
	})

	t.Run("reject with reason", func(t *testing.T) {
		svc := new(MockContentService)
		svc.On("RejectContent", mock.Anything, adminRequester, int64(5), "Blurry scan").
			Return(&models.Content{ID: 5, Status: models.ContentStatusRejected}, nil)

		req := httptest.NewRequest(http.MethodPut, "/content/5/reject", strings.NewReader(`{"reason":"Blurry scan"}`))
		req.Header.Set("Content-Type", "application/json")
		w, _ := serve(contentRouter(svc, adminRequester), req)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestGetComplaint_AnonymousSubmitterHidden(t *testing.T) {
	svc := new(MockComplaintService)
	complaint := &models.Complaint{ID: 3, Subject: "Projector in room 204 is broken", SubmittedBy: 7, IsAnonymous: true}
	svc.On("GetComplaintByID", mock.Anything, mock.Anything, int64(3)).Return(complaint, nil)

	for _, tc := range []struct {
		name      string
		requester auth.Requester
		submitter float64
	}{
		{"admin sees no submitter", adminRequester, 0},
		{"submitter sees themselves", userRequester, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewComplaintController(svc, zerolog.Nop())
			r := gin.New()
			r.GET("/complaints/:id", as(tc.requester), ctrl.GetComplaint)

			w, env := serve(r, httptest.NewRequest(http.MethodGet, "/complaints/3", nil))
			require.Equal(t, http.StatusOK, w.Code)

			var data map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, tc.submitter, data["submittedBy"])
		})
	}
	assert.Equal(t, int64(7), complaint.SubmittedBy)
}

func TestCreateComplaint_Validation(t *testing.T) {
	svc := new(MockComplaintService)
	ctrl := NewComplaintController(svc, zerolog.Nop())
	r := gin.New()
	r.POST("/complaints", as(userRequester), ctrl.CreateComplaint)

	req := httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(`{"subject":"short","message":"x","category":"facility"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"subject", "message"}, fields)
	svc.AssertNotCalled(t, "CreateComplaint", mock.Anything, mock.Anything, mock.Anything)
}

func searchRouter(svc *MockSearchService, requester auth.Requester) *gin.Engine {
	ctrl := NewSearchController(svc, zerolog.Nop())
	r := gin.New()
	g := r.Group("/search", as(requester))
	g.GET("/global", ctrl.GlobalSearch)
	g.GET("/suggestions", ctrl.Suggestions)
	g.GET("/analytics", ctrl.Analytics)
	return r
}

func TestSearch_Defaults(t *testing.T) {
	t.Run("global search pages by 20", func(t *testing.T) {
		svc := new(MockSearchService)
		svc.On("GlobalSearch", mock.Anything, userRequester,
			mock.MatchedBy(func(req *dto.GlobalSearchRequest) bool { return req.Query == "notes" }), 1, 20).
			Return(&dto.GlobalSearchResult{}, nil)

		w, _ := serve(searchRouter(svc, userRequester), httptest.NewRequest(http.MethodGet, "/search/global?query=notes", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("suggestions default to all types", func(t *testing.T) {
		svc := new(MockSearchService)
		svc.On("Suggestions", mock.Anything, userRequester, "da", "all").
			Return([]dto.Suggestion{{Type: "content", Label: "Data Structures notes"}}, nil)

		w, env := serve(searchRouter(svc, userRequester), httptest.NewRequest(http.MethodGet, "/search/suggestions?query=da", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"suggestions":[{"type":"content","label":"Data Structures notes"}]}`, string(env.Data))
	})

	t.Run("bad analytics period", func(t *testing.T) {
		svc := new(MockSearchService)
		svc.On("Analytics", mock.Anything, "decade").
			Return(nil, apperrors.NewBadRequestError("Invalid period"))

		w, env := serve(searchRouter(svc, adminRequester), httptest.NewRequest(http.MethodGet, "/search/analytics?period=decade", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeBadRequest, env.Error.Code)
	})

	t.Run("service failure is hidden", func(t *testing.T) {
		svc := new(MockSearchService)
		svc.On("Analytics", mock.Anything, "week").Return(nil, errors.New("connection reset"))

		w, env := serve(searchRouter(svc, adminRequester), httptest.NewRequest(http.MethodGet, "/search/analytics", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", env.Message)
	})
}
