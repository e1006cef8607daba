package agent_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskdeck.app/server/internal/agent"
	"taskdeck.app/server/internal/model"
	"taskdeck.app/server/internal/service"
)

var _ = Describe("TodoTools", func() {
	var (
		tools   *agent.TodoTools
		mockSvc *mockTodoService
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockSvc = &mockTodoService{}
		tools = agent.NewTodoTools(mockSvc)
	})

	Describe("Definitions", func() {
		It("should declare all six tools in order", func() {
			defs := tools.Definitions()

			Expect(defs).To(HaveLen(6))
			names := make([]string, len(defs))
			for i, def := range defs {
				names[i] = def.Name
			}
			Expect(names).To(Equal([]string{
				"create_todo", "list_todos", "update_todo",
				"delete_todo", "toggle_starred", "set_priority",
			}))
		})

		It("should carry a parameter schema per tool", func() {
			for _, def := range tools.Definitions() {
				Expect(def.Parameters).NotTo(BeNil())
				Expect(def.Description).NotTo(BeEmpty())
			}
		})
	})

	Describe("Dispatch", func() {
		Context("with an unregistered tool", func() {
			It("should return an error-flagged result, not an error", func() {
				result := tools.Dispatch(ctx, "drop_database", "{}")

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("unknown tool"))
				Expect(result.Content).To(ContainSubstring("drop_database"))
			})
		})

		Context("with malformed argument JSON", func() {
			It("should fail before reaching the service", func() {
				result := tools.Dispatch(ctx, "create_todo", "{not json")

				Expect(result.IsError).To(BeTrue())
				Expect(mockSvc.createCalls).To(BeZero())
			})
		})

		Context("create_todo", func() {
			It("should create and return the todo as JSON", func() {
				mockSvc.createFn = func(_ context.Context, input service.CreateInput) (*model.Todo, error) {
					Expect(input.Text).To(Equal("buy milk"))
					Expect(input.Starred).To(BeTrue())
					Expect(input.Priority).NotTo(BeNil())
					Expect(*input.Priority).To(Equal(2))
					return &model.Todo{ID: 123, Text: input.Text, Starred: true, Priority: 2}, nil
				}

				result := tools.Dispatch(ctx, "create_todo",
					`{"text":"buy milk","starred":true,"priority":2}`)

				Expect(result.IsError).To(BeFalse())

				var todo model.Todo
				Expect(json.Unmarshal([]byte(result.Content), &todo)).To(Succeed())
				Expect(todo.ID).To(Equal(int64(123)))
				Expect(todo.Text).To(Equal("buy milk"))
			})

			It("should reject missing text without calling the service", func() {
				result := tools.Dispatch(ctx, "create_todo", `{}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("text is required"))
				Expect(mockSvc.createCalls).To(BeZero())
			})

			It("should reject a non-integer priority with a clear message", func() {
				result := tools.Dispatch(ctx, "create_todo",
					`{"text":"buy milk","priority":3.5}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("must be an integer between 1 and 5"))
				Expect(mockSvc.createCalls).To(BeZero())
			})

			It("should reject a malformed due date", func() {
				result := tools.Dispatch(ctx, "create_todo",
					`{"text":"buy milk","dueDate":"next tuesday"}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("ISO 8601"))
				Expect(mockSvc.createCalls).To(BeZero())
			})

			It("should parse an RFC 3339 due date", func() {
				mockSvc.createFn = func(_ context.Context, input service.CreateInput) (*model.Todo, error) {
					Expect(input.DueDate).NotTo(BeNil())
					Expect(input.DueDate.Year()).To(Equal(2026))
					return &model.Todo{ID: 1, Text: input.Text, DueDate: input.DueDate}, nil
				}

				result := tools.Dispatch(ctx, "create_todo",
					`{"text":"buy milk","dueDate":"2026-09-01T12:00:00Z"}`)

				Expect(result.IsError).To(BeFalse())
			})

			It("should absorb service validation errors into the result", func() {
				mockSvc.createFn = func(_ context.Context, _ service.CreateInput) (*model.Todo, error) {
					return nil, &service.ValidationError{Field: "priority", Reason: "must be an integer between 1 and 5"}
				}

				result := tools.Dispatch(ctx, "create_todo", `{"text":"buy milk","priority":7}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("priority"))
			})
		})

		Context("list_todos", func() {
			It("should forward filters and return the list as JSON", func() {
				mockSvc.listFn = func(_ context.Context, filter service.ListFilter) ([]model.Todo, error) {
					Expect(filter.Starred).NotTo(BeNil())
					Expect(*filter.Starred).To(BeTrue())
					Expect(filter.Tags).To(Equal([]string{"work", "home"}))
					return []model.Todo{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, nil
				}

				result := tools.Dispatch(ctx, "list_todos",
					`{"starred":true,"tags":["work","home"]}`)

				Expect(result.IsError).To(BeFalse())

				var todos []model.Todo
				Expect(json.Unmarshal([]byte(result.Content), &todos)).To(Succeed())
				Expect(todos).To(HaveLen(2))
			})

			It("should accept empty arguments", func() {
				result := tools.Dispatch(ctx, "list_todos", `{}`)

				Expect(result.IsError).To(BeFalse())
			})
		})

		Context("update_todo", func() {
			It("should parse the string id into an int64", func() {
				mockSvc.updateFn = func(_ context.Context, todoID int64, input service.UpdateInput) (*model.Todo, error) {
					Expect(todoID).To(Equal(int64(7226599664389718016)))
					Expect(input.Completed).NotTo(BeNil())
					Expect(*input.Completed).To(BeTrue())
					return &model.Todo{ID: todoID, Completed: true}, nil
				}

				result := tools.Dispatch(ctx, "update_todo",
					`{"id":"7226599664389718016","completed":true}`)

				Expect(result.IsError).To(BeFalse())
				Expect(mockSvc.updateCalls).To(Equal(1))
			})

			It("should reject a non-numeric id without calling the service", func() {
				result := tools.Dispatch(ctx, "update_todo", `{"id":"abc","completed":true}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("decimal number"))
				Expect(mockSvc.updateCalls).To(BeZero())
			})

			It("should reject a missing id", func() {
				result := tools.Dispatch(ctx, "update_todo", `{"completed":true}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("id is required"))
			})
		})

		Context("delete_todo", func() {
			It("should report success for an existing todo", func() {
				result := tools.Dispatch(ctx, "delete_todo", `{"id":"42"}`)

				Expect(result.IsError).To(BeFalse())
				Expect(result.Content).To(ContainSubstring(`"success":true`))
			})

			It("should report a miss without flagging an error", func() {
				mockSvc.deleteFn = func(_ context.Context, _ int64) (bool, error) {
					return false, nil
				}

				result := tools.Dispatch(ctx, "delete_todo", `{"id":"42"}`)

				Expect(result.IsError).To(BeFalse())
				Expect(result.Content).To(ContainSubstring(`"success":false`))
				Expect(result.Content).To(ContainSubstring("no todo with that id"))
			})
		})

		Context("toggle_starred", func() {
			It("should require the starred flag", func() {
				result := tools.Dispatch(ctx, "toggle_starred", `{"id":"42"}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("starred is required"))
			})

			It("should pass starred=false through", func() {
				mockSvc.toggleStarredFn = func(_ context.Context, todoID int64, starred bool) (*model.Todo, error) {
					Expect(todoID).To(Equal(int64(42)))
					Expect(starred).To(BeFalse())
					return &model.Todo{ID: todoID}, nil
				}

				result := tools.Dispatch(ctx, "toggle_starred", `{"id":"42","starred":false}`)

				Expect(result.IsError).To(BeFalse())
			})
		})

		Context("set_priority", func() {
			It("should require priority", func() {
				result := tools.Dispatch(ctx, "set_priority", `{"id":"42"}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("priority is required"))
			})

			It("should reject a fractional priority", func() {
				result := tools.Dispatch(ctx, "set_priority", `{"id":"42","priority":1.5}`)

				Expect(result.IsError).To(BeTrue())
				Expect(result.Content).To(ContainSubstring("must be an integer between 1 and 5"))
			})

			It("should set an integer priority", func() {
				mockSvc.setPriorityFn = func(_ context.Context, todoID int64, priority int) (*model.Todo, error) {
					Expect(priority).To(Equal(1))
					return &model.Todo{ID: todoID, Priority: priority}, nil
				}

				result := tools.Dispatch(ctx, "set_priority", `{"id":"42","priority":1}`)

				Expect(result.IsError).To(BeFalse())
			})
		})
	})
})
