// Package server exposes the trading service over HTTP
package server

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
	"github.com/dkravchuk/papertrader/internal/prices"
	"github.com/dkravchuk/papertrader/internal/service"
)

var validate = validator.New()

// Server holds the handlers
type Server struct {
	srv *service.Service
}

// NewServer is constructor
func NewServer(srv *service.Service) *Server {
	return &Server{srv: srv}
}

// InitializeRoutes registers all routes on the app
func (s *Server) InitializeRoutes(app *fiber.App) {
	app.Post("/v1/signup", s.SignUp)
	app.Post("/v1/login", s.Login)

	auth := app.Group("/v1", s.Authenticate)
	auth.Post("/logout", s.Logout)
	auth.Post("/deposit", s.Deposit)
	auth.Post("/buy", s.Order(model.SideBuy))
	auth.Post("/sell", s.Order(model.SideSell))
	auth.Get("/portfolio", s.Portfolio)
	auth.Get("/history", s.History)
	auth.Get("/quote/:symbol", s.Quote)
	auth.Get("/reconcile", s.Reconcile)
}

// Authenticate resolves the bearer token to an owner
func (s *Server) Authenticate(c fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	ownerID, ok := s.srv.OwnerByToken(token)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid session"})
	}
	c.Locals("ownerID", ownerID)
	return c.Next()
}

// SignUp registers a user and their account
func (s *Server) SignUp(c fiber.Ctx) error {
	var schema SignUpSchema
	if err := c.Bind().Body(&schema); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validate.Struct(&schema); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	deposit := decimal.Zero
	if schema.InitialDeposit != nil {
		deposit = *schema.InitialDeposit
	}
	ownerID, err := s.srv.SignUp(context.Background(), schema.Username, schema.Password, deposit)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SignUpResponseSchema{OwnerID: ownerID})
}

// Login checks credentials and returns a session token
func (s *Server) Login(c fiber.Ctx) error {
	var schema LoginSchema
	if err := c.Bind().Body(&schema); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validate.Struct(&schema); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	token, err := s.srv.Login(context.Background(), schema.Username, schema.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(LoginResponseSchema{Token: token})
}

// Logout drops the session
func (s *Server) Logout(c fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	s.srv.Logout(token)
	return c.SendStatus(fiber.StatusNoContent)
}

// Deposit adds cash to the account
func (s *Server) Deposit(c fiber.Ctx) error {
	var schema DepositSchema
	if err := c.Bind().Body(&schema); err != nil {
		return fiber.ErrBadRequest
	}
	if err := validate.Struct(&schema); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	acc, err := s.srv.Deposit(context.Background(), ownerID(c), *schema.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accountSchema(acc))
}

// Order returns the buy or sell handler. When the client omits the
// price, the server resolves it from the price source at execution time.
func (s *Server) Order(side model.Side) fiber.Handler {
	return func(c fiber.Ctx) error {
		var schema OrderSchema
		if err := c.Bind().Body(&schema); err != nil {
			return fiber.ErrBadRequest
		}
		if err := validate.Struct(&schema); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}

		ctx := context.Background()
		var price decimal.Decimal
		if schema.Price != nil {
			price = *schema.Price
		} else {
			var err error
			price, err = s.srv.Quote(ctx, schema.Symbol)
			if err != nil {
				return respondError(c, err)
			}
		}

		var acc *model.Account
		var err error
		if side == model.SideBuy {
			acc, err = s.srv.Buy(ctx, ownerID(c), schema.Symbol, *schema.Quantity, price)
		} else {
			acc, err = s.srv.Sell(ctx, ownerID(c), schema.Symbol, *schema.Quantity, price)
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(accountSchema(acc))
	}
}

// Portfolio returns the account state
func (s *Server) Portfolio(c fiber.Ctx) error {
	acc, err := s.srv.Portfolio(context.Background(), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(accountSchema(acc))
}

// History returns the trade log of the account
func (s *Server) History(c fiber.Ctx) error {
	entries, err := s.srv.History(context.Background(), ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	if entries == nil {
		entries = []model.TradeEntry{}
	}
	return c.JSON(entries)
}

// Quote returns the current price for one symbol
func (s *Server) Quote(c fiber.Ctx) error {
	symbol := c.Params("symbol")
	price, err := s.srv.Quote(context.Background(), symbol)
	if err != nil {
		return respondError(c, err)
	}
	symbol, _ = ledger.NormalizeSymbol(symbol)
	return c.JSON(QuoteSchema{Symbol: symbol, Price: price})
}

// Reconcile replays the trade log against the stored account
func (s *Server) Reconcile(c fiber.Ctx) error {
	owner := ownerID(c)
	consistent, err := s.srv.Reconcile(context.Background(), owner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ReconcileSchema{OwnerID: owner, Consistent: consistent})
}

func ownerID(c fiber.Ctx) string {
	owner, _ := c.Locals("ownerID").(string)
	return owner
}

// respondError maps domain errors to precise HTTP statuses so the client
// can show the user what went wrong
func respondError(c fiber.Ctx, err error) error {
	var code int
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidPrice):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInsufficientFunds):
		code = fiber.StatusPaymentRequired
	case errors.Is(err, ledger.ErrInsufficientHoldings),
		errors.Is(err, model.ErrUserAlreadyExists):
		code = fiber.StatusConflict
	case errors.Is(err, ledger.ErrUnknownSymbol),
		errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, model.ErrUserNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, service.ErrWrongPassword):
		code = fiber.StatusUnauthorized
	case errors.Is(err, ledger.ErrStorageUnavailable),
		errors.Is(err, prices.ErrPriceUnavailable):
		code = fiber.StatusServiceUnavailable
	default:
		log.Errorf("internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
