package quotation

import (
	"context"
	goerrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officehub/backend/internal/domain/errors"
	"github.com/officehub/backend/internal/platform/session"
	"github.com/officehub/backend/internal/platform/session/memory"
)

type stubRecorder struct {
	createFn func(ctx context.Context, payload SubmitPayload, key string) (string, error)
	calls    []SubmitPayload
	keys     []string
}

func (r *stubRecorder) CreateQuotation(ctx context.Context, payload SubmitPayload, key string) (string, error) {
	r.calls = append(r.calls, payload)
	r.keys = append(r.keys, key)
	if r.createFn != nil {
		return r.createFn(ctx, payload, key)
	}
	return "quotation created", nil
}

func newTestService(recorder *stubRecorder) (*Service, session.Store) {
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, recorder, time.Hour, logger), store
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCartSubTotal(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{Qty: 2, UnitPrice: price(50)},
		{Qty: 1, UnitPrice: price(30)},
	}}

	assert.True(t, cart.SubTotal().Equal(price(130)))
	assert.True(t, cart.TotalBill().Equal(price(130)))
}

func TestAddLine(t *testing.T) {
	ctx := context.Background()

	valid := AddLineInput{
		ProjectID:   "p1",
		ProjectName: "Website",
		Qty:         3,
		UnitPrice:   price(100),
		Description: "dev",
	}

	t.Run("prepends a new line with a fresh id", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})

		cart, err := svc.AddLine(ctx, "sess-1", valid)
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.NotEmpty(t, cart.Items[0].ID)

		second := valid
		second.Description = "design"
		cart, err = svc.AddLine(ctx, "sess-1", second)
		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, "design", cart.Items[0].Description)
		assert.Equal(t, "dev", cart.Items[1].Description)
		assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
	})

	t.Run("persists the cart to the session", func(t *testing.T) {
		svc, store := newTestService(&stubRecorder{})

		_, err := svc.AddLine(ctx, "sess-1", valid)
		require.NoError(t, err)

		var stored Cart
		require.NoError(t, store.Get(ctx, "sess-1", cartKey, &stored))
		require.Len(t, stored.Items, 1)
	})

	t.Run("reports the first failing field and leaves the cart unchanged", func(t *testing.T) {
		cases := []struct {
			name  string
			input AddLineInput
			field string
		}{
			{
				name:  "missing project",
				input: AddLineInput{Qty: 1, UnitPrice: price(10), Description: "x"},
				field: "projectId",
			},
			{
				name:  "zero qty",
				input: AddLineInput{ProjectID: "p1", Qty: 0, UnitPrice: price(10), Description: "x"},
				field: "qty",
			},
			{
				name:  "zero unit price",
				input: AddLineInput{ProjectID: "p1", Qty: 1, UnitPrice: price(0), Description: "x"},
				field: "unitPrice",
			},
			{
				name:  "empty description",
				input: AddLineInput{ProjectID: "p1", Qty: 1, UnitPrice: price(10), Description: "  "},
				field: "description",
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, _ := newTestService(&stubRecorder{})

				_, err := svc.AddLine(ctx, "sess-1", tc.input)

				require.Error(t, err)
				var appErr errors.AppError
				require.True(t, goerrors.As(err, &appErr))
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
				assert.Equal(t, tc.field, appErr.Details["field"])

				cart, getErr := svc.Cart(ctx, "sess-1")
				require.NoError(t, getErr)
				assert.Empty(t, cart.Items)
			})
		}
	})

	t.Run("qty zero checked before unit price zero", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})

		_, err := svc.AddLine(ctx, "sess-1", AddLineInput{ProjectID: "p1", Qty: 0, UnitPrice: price(0)})

		var appErr errors.AppError
		require.True(t, goerrors.As(err, &appErr))
		assert.Equal(t, "qty", appErr.Details["field"])
	})
}

func TestEditLine(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc *Service) string {
		t.Helper()
		cart, err := svc.AddLine(ctx, "sess-1", AddLineInput{
			ProjectID: "p1", Qty: 2, UnitPrice: price(50), Description: "dev",
		})
		require.NoError(t, err)
		return cart.Items[0].ID
	}

	t.Run("updates a field in place", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})
		id := seed(t, svc)

		cart, err := svc.EditLine(ctx, "sess-1", id, "qty", "5")
		require.NoError(t, err)
		assert.Equal(t, 5, cart.Items[0].Qty)

		cart, err = svc.EditLine(ctx, "sess-1", id, "unitPrice", "75.50")
		require.NoError(t, err)
		assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.RequireFromString("75.50")))

		cart, err = svc.EditLine(ctx, "sess-1", id, "description", "frontend dev")
		require.NoError(t, err)
		assert.Equal(t, "frontend dev", cart.Items[0].Description)
	})

	t.Run("silently ignores negative numeric input", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})
		id := seed(t, svc)

		cart, err := svc.EditLine(ctx, "sess-1", id, "qty", "-3")
		require.NoError(t, err)
		assert.Equal(t, 2, cart.Items[0].Qty)

		cart, err = svc.EditLine(ctx, "sess-1", id, "unitPrice", "-10")
		require.NoError(t, err)
		assert.True(t, cart.Items[0].UnitPrice.Equal(price(50)))
	})

	t.Run("silently ignores non-numeric input", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})
		id := seed(t, svc)

		cart, err := svc.EditLine(ctx, "sess-1", id, "qty", "abc")
		require.NoError(t, err)
		assert.Equal(t, 2, cart.Items[0].Qty)
	})

	t.Run("unknown line id is not found", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})
		seed(t, svc)

		_, err := svc.EditLine(ctx, "sess-1", "missing", "qty", "5")
		assert.ErrorIs(t, err, errors.NewNotFoundError(""))
	})
}

func TestToggleEdit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&stubRecorder{})

	cart, err := svc.AddLine(ctx, "sess-1", AddLineInput{
		ProjectID: "p1", Qty: 1, UnitPrice: price(10), Description: "dev",
	})
	require.NoError(t, err)
	id := cart.Items[0].ID
	require.False(t, cart.Items[0].IsEditing)

	cart, err = svc.ToggleEdit(ctx, "sess-1", id)
	require.NoError(t, err)
	assert.True(t, cart.Items[0].IsEditing)

	cart, err = svc.ToggleEdit(ctx, "sess-1", id)
	require.NoError(t, err)
	assert.False(t, cart.Items[0].IsEditing)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	buildCart := func(t *testing.T, svc *Service) {
		t.Helper()
		_, err := svc.AddLine(ctx, "sess-1", AddLineInput{
			ProjectID: "p1", ProjectName: "Website", Qty: 3, UnitPrice: price(100), Description: "dev",
		})
		require.NoError(t, err)
		_, err = svc.AddLine(ctx, "sess-1", AddLineInput{
			ProjectID: "p1", ProjectName: "Website", Qty: 1, UnitPrice: price(50), Description: "design",
		})
		require.NoError(t, err)
	}

	t.Run("persists one record and clears the cart", func(t *testing.T) {
		recorder := &stubRecorder{}
		svc, store := newTestService(recorder)
		buildCart(t, svc)

		cart, err := svc.Cart(ctx, "sess-1")
		require.NoError(t, err)
		require.True(t, cart.SubTotal().Equal(price(350)))

		msg, err := svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		require.NoError(t, err)
		assert.Equal(t, "quotation created", msg)

		require.Len(t, recorder.calls, 1)
		payload := recorder.calls[0]
		assert.Equal(t, "cust-1", payload.CustomerID)
		assert.Equal(t, "2026-08-01", payload.Date)
		assert.Len(t, payload.Items, 2)
		assert.True(t, payload.SubTotal.Equal(price(350)))
		assert.True(t, payload.TotalBill.Equal(price(350)))

		cart, err = svc.Cart(ctx, "sess-1")
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())

		var stored Cart
		err = store.Get(ctx, "sess-1", cartKey, &stored)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("requires a customer", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})
		buildCart(t, svc)

		_, err := svc.Submit(ctx, "sess-1", "", "2026-08-01")
		assert.ErrorIs(t, err, errors.NewValidationError(""))
	})

	t.Run("rejects an empty cart", func(t *testing.T) {
		svc, _ := newTestService(&stubRecorder{})

		_, err := svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		assert.ErrorIs(t, err, errors.NewValidationError(""))
	})

	t.Run("retains the cart on upstream failure", func(t *testing.T) {
		recorder := &stubRecorder{
			createFn: func(context.Context, SubmitPayload, string) (string, error) {
				return "", errors.NewUpstreamError("office API unavailable", 503, nil)
			},
		}
		svc, _ := newTestService(recorder)
		buildCart(t, svc)

		_, err := svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		require.Error(t, err)

		cart, getErr := svc.Cart(ctx, "sess-1")
		require.NoError(t, getErr)
		assert.Len(t, cart.Items, 2)
		assert.False(t, cart.Submitting)
	})

	t.Run("reuses the idempotency key on retry", func(t *testing.T) {
		fail := true
		recorder := &stubRecorder{}
		recorder.createFn = func(context.Context, SubmitPayload, string) (string, error) {
			if fail {
				return "", errors.NewUpstreamError("office API unavailable", 503, nil)
			}
			return "quotation created", nil
		}
		svc, _ := newTestService(recorder)
		buildCart(t, svc)

		_, err := svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		require.Error(t, err)

		fail = false
		_, err = svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		require.NoError(t, err)

		require.Len(t, recorder.keys, 2)
		assert.NotEmpty(t, recorder.keys[0])
		assert.Equal(t, recorder.keys[0], recorder.keys[1])
	})

	t.Run("rejects a second submit while one is in flight", func(t *testing.T) {
		svc, store := newTestService(&stubRecorder{})
		buildCart(t, svc)

		var cart Cart
		require.NoError(t, store.Get(ctx, "sess-1", cartKey, &cart))
		cart.Submitting = true
		require.NoError(t, store.Put(ctx, "sess-1", cartKey, cart, time.Hour))

		_, err := svc.Submit(ctx, "sess-1", "cust-1", "2026-08-01")
		assert.ErrorIs(t, err, errors.NewConflictError(""))
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&stubRecorder{})

	_, err := svc.AddLine(ctx, "sess-1", AddLineInput{
		ProjectID: "p1", Qty: 1, UnitPrice: price(10), Description: "dev",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx, "sess-1"))

	cart, err := svc.Cart(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
