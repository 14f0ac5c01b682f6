package quotation

import (
	"context"
	goerrors "errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/officehub/backend/internal/common/utils"
	"github.com/officehub/backend/internal/domain/errors"
	"github.com/officehub/backend/internal/platform/session"
)

const cartKey = "quotation:cart"

// Recorder persists a finished quotation with the office API. The
// idempotency key lets the upstream deduplicate a retried submit.
type Recorder interface {
	CreateQuotation(ctx context.Context, payload SubmitPayload, idempotencyKey string) (message string, err error)
}

// Service drives the cart lifecycle. Every change is written back to the
// session store so the draft survives navigation within a session.
type Service struct {
	store    session.Store
	recorder Recorder
	ttl      time.Duration
	logger   *slog.Logger

	newLineID    func() string
	newSubmitKey func() string
}

func NewService(store session.Store, recorder Recorder, ttl time.Duration, logger *slog.Logger) *Service {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return &Service{
		store:     store,
		recorder:  recorder,
		ttl:       ttl,
		logger:    logger,
		newLineID: func() string { return uuid.New().String() },
		newSubmitKey: func() string {
			return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		},
	}
}

// Cart returns the session's draft, empty if none exists yet.
func (s *Service) Cart(ctx context.Context, sessionID string) (Cart, error) {
	var cart Cart
	err := s.store.Get(ctx, sessionID, cartKey, &cart)
	if goerrors.Is(err, session.ErrNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, errors.NewInternalError("failed to load quotation cart", err)
	}
	return cart, nil
}

// AddLineInput carries the form fields for a new cart line.
type AddLineInput struct {
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Description string          `json:"description"`
}

// AddLine validates the input and prepends a new line to the cart. The
// first failing field is reported and the cart is left unchanged.
func (s *Service) AddLine(ctx context.Context, sessionID string, input AddLineInput) (Cart, error) {
	if strings.TrimSpace(input.ProjectID) == "" {
		return Cart{}, errors.NewValidationError("please select a project").WithDetail("field", "projectId")
	}
	if err := utils.ValidatePositiveInt(input.Qty, "qty"); err != nil {
		return Cart{}, appendFieldDetail(err, "qty")
	}
	if err := utils.ValidatePositiveAmount(input.UnitPrice, "unitPrice"); err != nil {
		return Cart{}, appendFieldDetail(err, "unitPrice")
	}
	if err := utils.ValidateRequiredString(input.Description, "description"); err != nil {
		return Cart{}, appendFieldDetail(err, "description")
	}

	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	line := CartItem{
		ID:          s.newLineID(),
		ProjectID:   input.ProjectID,
		ProjectName: input.ProjectName,
		Description: strings.TrimSpace(input.Description),
		Qty:         input.Qty,
		UnitPrice:   input.UnitPrice,
	}
	cart.Items = append([]CartItem{line}, cart.Items...)

	if err := s.save(ctx, sessionID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// EditLine updates one field of a cart line in place. Negative numeric
// input is ignored and leaves the line unchanged.
func (s *Service) EditLine(ctx context.Context, sessionID, lineID, field, value string) (Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := cart.lineIndex(lineID)
	if idx < 0 {
		return Cart{}, errors.NewNotFoundError("cart line not found")
	}

	switch field {
	case "qty":
		qty, convErr := decimal.NewFromString(value)
		if convErr != nil || qty.IsNegative() || !qty.IsInteger() {
			return cart, nil
		}
		cart.Items[idx].Qty = int(qty.IntPart())
	case "unitPrice":
		price, convErr := decimal.NewFromString(value)
		if convErr != nil || price.IsNegative() {
			return cart, nil
		}
		cart.Items[idx].UnitPrice = price
	case "description":
		cart.Items[idx].Description = value
	default:
		return Cart{}, errors.NewInvalidInputError("unknown cart line field: "+field, nil)
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// ToggleEdit flips a line between display and edit mode. Edits made while
// in edit mode are already committed, so toggling back needs no save step.
func (s *Service) ToggleEdit(ctx context.Context, sessionID, lineID string) (Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := cart.lineIndex(lineID)
	if idx < 0 {
		return Cart{}, errors.NewNotFoundError("cart line not found")
	}
	cart.Items[idx].IsEditing = !cart.Items[idx].IsEditing

	if err := s.save(ctx, sessionID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// RemoveLine deletes one line from the cart.
func (s *Service) RemoveLine(ctx context.Context, sessionID, lineID string) (Cart, error) {
	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := cart.lineIndex(lineID)
	if idx < 0 {
		return Cart{}, errors.NewNotFoundError("cart line not found")
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.save(ctx, sessionID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Submit persists the cart as one quotation record. The cart must be
// non-empty and a customer selected. A ULID idempotency key is minted on
// the first attempt and reused on retries; while a submit is in flight a
// second submit of the same draft is rejected. On success the cart and
// its session entry are cleared; on failure the cart is retained.
func (s *Service) Submit(ctx context.Context, sessionID, customerID, date string) (string, error) {
	if err := utils.ValidateRequiredString(customerID, "customer"); err != nil {
		return "", appendFieldDetail(err, "customerId")
	}
	if err := utils.ValidateISODate(date); err != nil {
		return "", appendFieldDetail(err, "date")
	}

	cart, err := s.Cart(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if cart.IsEmpty() {
		return "", errors.NewValidationError("cannot submit an empty quotation")
	}
	if cart.Submitting {
		return "", errors.NewConflictError("a submit for this quotation is already in progress")
	}

	if cart.IdempotencyKey == "" {
		cart.IdempotencyKey = s.newSubmitKey()
	}
	cart.Submitting = true
	if err := s.save(ctx, sessionID, cart); err != nil {
		return "", err
	}

	payload := SubmitPayload{
		Date:       date,
		CustomerID: customerID,
		Items:      cart.Items,
		SubTotal:   cart.SubTotal(),
		TotalBill:  cart.TotalBill(),
	}

	message, err := s.recorder.CreateQuotation(ctx, payload, cart.IdempotencyKey)
	if err != nil {
		cart.Submitting = false
		if saveErr := s.save(ctx, sessionID, cart); saveErr != nil {
			s.logger.Error("failed to release quotation submit flag",
				"session_id", sessionID,
				"error", saveErr)
		}
		return "", err
	}

	if err := s.store.Delete(ctx, sessionID, cartKey); err != nil {
		s.logger.Error("failed to clear submitted quotation cart",
			"session_id", sessionID,
			"error", err)
	}
	return message, nil
}

// Close discards the draft unconditionally.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID, cartKey); err != nil {
		return errors.NewInternalError("failed to clear quotation cart", err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, sessionID string, cart Cart) error {
	if err := s.store.Put(ctx, sessionID, cartKey, cart, s.ttl); err != nil {
		return errors.NewInternalError("failed to save quotation cart", err)
	}
	return nil
}

func (c Cart) lineIndex(lineID string) int {
	for i, item := range c.Items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}

func appendFieldDetail(err error, field string) error {
	var appErr errors.AppError
	if goerrors.As(err, &appErr) {
		return appErr.WithDetail("field", field)
	}
	return err
}
