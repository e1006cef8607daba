package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/server/internal/http/handler"
	"taskdeck.app/server/internal/model"
	"taskdeck.app/server/internal/service"
	"taskdeck.app/server/internal/store"
)

var _ = Describe("TodoHandler", func() {
	var (
		router *gin.Engine
		svc    *mockTodoService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockTodoService{}
		h := handler.NewTodoHandler(svc)
		router.GET("/todos", h.List)
		router.POST("/todos", h.Create)
		router.POST("/todos/reorder", h.Reorder)
		router.GET("/todos/:id", h.GetByID)
		router.PATCH("/todos/:id", h.Update)
		router.DELETE("/todos/:id", h.Delete)
		router.POST("/todos/:id/star", h.Star)
		router.POST("/todos/:id/priority", h.Priority)
		router.POST("/todos/:id/tags", h.Tags)
	})

	postJSON := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Create", func() {
		It("returns 201 with the created todo", func() {
			svc.createFn = func(_ context.Context, input service.CreateInput) (*model.Todo, error) {
				return &model.Todo{ID: 7226599664389718016, Text: input.Text, Priority: 3}, nil
			}

			w := postJSON("/todos", `{"text":"buy milk"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["text"]).To(Equal("buy milk"))
			// int64 ids travel as strings
			Expect(resp["id"]).To(Equal("7226599664389718016"))
		})

		It("returns 400 when text is missing", func() {
			w := postJSON("/todos", `{"starred":true}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on a fractional priority", func() {
			w := postJSON("/todos", `{"text":"x","priority":3.5}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 on a validation error from the service", func() {
			svc.createFn = func(_ context.Context, _ service.CreateInput) (*model.Todo, error) {
				return nil, &service.ValidationError{Field: "priority", Reason: "must be an integer between 1 and 5"}
			}

			w := postJSON("/todos", `{"text":"x","priority":9}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("priority"))
		})

		It("returns 500 when the service fails", func() {
			svc.createFn = func(_ context.Context, _ service.CreateInput) (*model.Todo, error) {
				return nil, errors.New("boom")
			}

			w := postJSON("/todos", `{"text":"x"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("List", func() {
		It("passes query filters through", func() {
			var captured service.ListFilter
			svc.listFn = func(_ context.Context, filter service.ListFilter) ([]model.Todo, error) {
				captured = filter
				return []model.Todo{}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/todos?starred=true&priority=2&tags=work,home", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(captured.Starred).NotTo(BeNil())
			Expect(*captured.Starred).To(BeTrue())
			Expect(captured.Priority).NotTo(BeNil())
			Expect(*captured.Priority).To(Equal(2))
			Expect(captured.Tags).To(Equal([]string{"work", "home"}))
			Expect(captured.Completed).To(BeNil())
		})

		It("returns 400 on a malformed boolean filter", func() {
			req := httptest.NewRequest(http.MethodGet, "/todos?starred=maybe", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetByID", func() {
		It("returns 404 for a missing todo", func() {
			svc.getFn = func(_ context.Context, _ int64) (*model.Todo, error) {
				return nil, store.ErrNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/todos/42", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodGet, "/todos/abc", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Update", func() {
		It("forwards only the supplied fields", func() {
			var captured service.UpdateInput
			svc.updateFn = func(_ context.Context, _ int64, input service.UpdateInput) (*model.Todo, error) {
				captured = input
				return &model.Todo{ID: 42, Completed: true}, nil
			}

			req := httptest.NewRequest(http.MethodPatch, "/todos/42", bytes.NewBufferString(`{"completed":true}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(captured.Completed).NotTo(BeNil())
			Expect(*captured.Completed).To(BeTrue())
			Expect(captured.Text).To(BeNil())
			Expect(captured.Tags).To(BeNil())
		})

		It("returns 404 when the todo is missing", func() {
			svc.updateFn = func(_ context.Context, _ int64, _ service.UpdateInput) (*model.Todo, error) {
				return nil, store.ErrNotFound
			}

			req := httptest.NewRequest(http.MethodPatch, "/todos/42", bytes.NewBufferString(`{"completed":true}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Delete", func() {
		It("reports whether a row was removed", func() {
			svc.deleteFn = func(_ context.Context, _ int64) (bool, error) {
				return false, nil
			}

			req := httptest.NewRequest(http.MethodDelete, "/todos/42", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"success":false`))
		})
	})

	Describe("Star", func() {
		It("accepts starred=false", func() {
			var capturedStarred *bool
			svc.toggleStarredFn = func(_ context.Context, _ int64, starred bool) (*model.Todo, error) {
				capturedStarred = &starred
				return &model.Todo{ID: 42}, nil
			}

			w := postJSON("/todos/42/star", `{"starred":false}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(capturedStarred).NotTo(BeNil())
			Expect(*capturedStarred).To(BeFalse())
		})

		It("returns 400 when the flag is absent", func() {
			w := postJSON("/todos/42/star", `{}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Priority", func() {
		It("returns 400 when the service rejects the tier", func() {
			svc.setPriorityFn = func(_ context.Context, _ int64, _ int) (*model.Todo, error) {
				return nil, &service.ValidationError{Field: "priority", Reason: "must be an integer between 1 and 5"}
			}

			w := postJSON("/todos/42/priority", `{"priority":9}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Tags", func() {
		It("replaces the tag set", func() {
			var captured []string
			svc.setTagsFn = func(_ context.Context, _ int64, tags []string) (*model.Todo, error) {
				captured = tags
				return &model.Todo{ID: 42, Tags: tags}, nil
			}

			w := postJSON("/todos/42/tags", `{"tags":["work","urgent"]}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(captured).To(Equal([]string{"work", "urgent"}))
		})
	})

	Describe("Reorder", func() {
		It("parses id strings and forwards them in order", func() {
			var captured []int64
			svc.reorderFn = func(_ context.Context, ids []int64) error {
				captured = ids
				return nil
			}

			w := postJSON("/todos/reorder", `{"orderedIds":["3","1","2"]}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(captured).To(Equal([]int64{3, 1, 2}))
		})

		It("rejects the whole batch when one id is malformed", func() {
			w := postJSON("/todos/reorder", `{"orderedIds":["3","abc"]}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.reorderCalls).To(BeZero())
		})

		It("returns 400 when orderedIds is missing", func() {
			w := postJSON("/todos/reorder", `{}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
