// Package checkout drives a shopper from "buy now" to a placed order:
// authentication, then address selection, then order submission.
package checkout

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/cart"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrBusy              = errors.New("another checkout request is in flight")
	ErrInvalidTransition = errors.New("operation not allowed in current checkout state")
	// ErrUnauthorized is matched with errors.Is against backend failures.
	ErrUnauthorized = errors.New("session rejected by backend")
)

type State int

const (
	Idle State = iota
	Anonymous
	AwaitingCode
	NoAddress
	OrderReview
	OrderPlaced
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Anonymous:
		return "anonymous"
	case AwaitingCode:
		return "awaiting_code"
	case NoAddress:
		return "no_address"
	case OrderReview:
		return "order_review"
	case OrderPlaced:
		return "order_placed"
	default:
		return "unknown"
	}
}

// Backend is the subset of the storefront API checkout needs.
type Backend interface {
	Signup(ctx context.Context, email, password string) error
	VerifyCode(ctx context.Context, email, code, password string) (*api.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	ListAddresses(ctx context.Context, token string) ([]api.Address, error)
	CreateAddress(ctx context.Context, token string, req api.AddressRequest) (*api.Address, error)
	CreateOrder(ctx context.Context, token string, req api.CreateOrderRequest) (*api.Order, error)
}

// Session is the client's view of a login.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

func (s *Session) valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}

// Review is what the shopper confirms before placing the order.
type Review struct {
	Lines   []cart.LineItem
	Total   float64
	Address api.Address
}

type credentials struct {
	email    string
	password string
}

// Orchestrator is safe for concurrent use. Only one network-bound
// operation runs at a time; others fail fast with ErrBusy.
type Orchestrator struct {
	cart    *cart.Cart
	backend Backend
	now     func() time.Time
	onState func(from, to State)

	busy atomic.Bool

	mu          sync.Mutex
	state       State
	checkingOut bool
	session     *Session
	pending     *credentials
	address     *api.Address
	lastOrder   *api.Order
}

type Option func(*Orchestrator)

// WithStateListener registers fn to observe every state change.
func WithStateListener(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// WithSession starts the orchestrator with a previously stored session.
func WithSession(s Session) Option {
	return func(o *Orchestrator) { o.session = &s }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(c *cart.Cart, backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{cart: c, backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns a copy of the current session, or nil.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	s := *o.session
	return &s
}

// Address is the address the order will ship to, once chosen.
func (o *Orchestrator) Address() *api.Address {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.address == nil {
		return nil
	}
	a := *o.address
	return &a
}

// LastOrder is the order created by the most recent PlaceOrder.
func (o *Orchestrator) LastOrder() *api.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastOrder
}

func (o *Orchestrator) acquire() error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) release() { o.busy.Store(false) }

// InFlight reports whether a network-bound operation is running.
func (o *Orchestrator) InFlight() bool { return o.busy.Load() }

// setState must be called with mu held; it returns the listener call to
// run after unlocking.
func (o *Orchestrator) setState(to State) func() {
	from := o.state
	o.state = to
	if o.onState == nil || from == to {
		return func() {}
	}
	fn := o.onState
	return func() { fn(from, to) }
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	notify := o.setState(to)
	o.mu.Unlock()
	notify()
}

// Begin starts checkout for the current cart.
func (o *Orchestrator) Begin(ctx context.Context) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	if o.cart.IsEmpty() {
		return ErrEmptyCart
	}

	o.mu.Lock()
	o.checkingOut = true
	o.address = nil
	o.lastOrder = nil
	session := o.session
	authed := session.valid(o.now())
	if !authed {
		o.session = nil
	}
	o.mu.Unlock()

	if !authed {
		o.transition(Anonymous)
		return nil
	}
	return o.loadAddresses(ctx, session.Token)
}

// SignUp requests a verification code for a new account.
func (o *Orchestrator) SignUp(ctx context.Context, email, password string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	switch o.State() {
	case Idle, Anonymous, AwaitingCode:
	default:
		return ErrInvalidTransition
	}

	if err := o.backend.Signup(ctx, email, password); err != nil {
		return err
	}

	o.mu.Lock()
	o.pending = &credentials{email: email, password: password}
	notify := o.setState(AwaitingCode)
	o.mu.Unlock()
	notify()
	return nil
}

// Verify submits the emailed code and logs in with the returned token.
func (o *Orchestrator) Verify(ctx context.Context, code string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	pending := o.pending
	state := o.state
	o.mu.Unlock()
	if state != AwaitingCode || pending == nil {
		return ErrInvalidTransition
	}

	resp, err := o.backend.VerifyCode(ctx, pending.email, code, pending.password)
	if err != nil {
		return err
	}
	return o.authenticated(ctx, resp, pending.email)
}

// Login establishes a session with existing credentials.
func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	switch o.State() {
	case Idle, Anonymous, AwaitingCode:
	default:
		return ErrInvalidTransition
	}

	resp, err := o.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return o.authenticated(ctx, resp, email)
}

func (o *Orchestrator) authenticated(ctx context.Context, resp *api.AuthResponse, email string) error {
	o.mu.Lock()
	o.session = &Session{UserID: resp.UserID, Email: email, Token: resp.Token, ExpiresAt: resp.ExpiresAt}
	o.pending = nil
	checkingOut := o.checkingOut
	o.mu.Unlock()

	if !checkingOut {
		o.transition(Idle)
		return nil
	}
	return o.loadAddresses(ctx, resp.Token)
}

// loadAddresses picks the first saved address or asks for one.
func (o *Orchestrator) loadAddresses(ctx context.Context, token string) error {
	addresses, err := o.backend.ListAddresses(ctx, token)
	if err != nil {
		o.handleBackendError(err)
		return err
	}

	o.mu.Lock()
	var notify func()
	if len(addresses) == 0 {
		o.address = nil
		notify = o.setState(NoAddress)
	} else {
		first := addresses[0]
		o.address = &first
		notify = o.setState(OrderReview)
	}
	o.mu.Unlock()
	notify()
	return nil
}

// AddAddress saves a new address and moves on to review.
func (o *Orchestrator) AddAddress(ctx context.Context, req api.AddressRequest) error {
	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	state, session := o.state, o.session
	o.mu.Unlock()
	if state != NoAddress || session == nil {
		return ErrInvalidTransition
	}

	address, err := o.backend.CreateAddress(ctx, session.Token, req)
	if err != nil {
		o.handleBackendError(err)
		return err
	}

	o.mu.Lock()
	o.address = address
	notify := o.setState(OrderReview)
	o.mu.Unlock()
	notify()
	return nil
}

// Review returns the cart snapshot and address about to be submitted.
func (o *Orchestrator) Review() (*Review, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != OrderReview || o.address == nil {
		return nil, ErrInvalidTransition
	}
	lines := o.cart.Lines()
	return &Review{
		Lines:   lines,
		Total:   linesTotal(lines),
		Address: *o.address,
	}, nil
}

// PlaceOrder submits the cart. The cart is cleared only when the backend
// confirms the order.
func (o *Orchestrator) PlaceOrder(ctx context.Context) (*api.Order, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	o.mu.Lock()
	state, session, address := o.state, o.session, o.address
	o.mu.Unlock()
	if state != OrderReview || session == nil || address == nil {
		return nil, ErrInvalidTransition
	}

	lines := o.cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	req := api.CreateOrderRequest{
		Items: toOrderItems(lines),
		Total: linesTotal(lines),
		Address: api.ShippingAddress{
			Name:         address.Name,
			Address:      address.Address,
			MobileNumber: address.MobileNumber,
		},
	}

	order, err := o.backend.CreateOrder(ctx, session.Token, req)
	if err != nil {
		o.handleBackendError(err)
		return nil, err
	}

	o.cart.Clear()
	o.mu.Lock()
	o.lastOrder = order
	o.checkingOut = false
	notify := o.setState(OrderPlaced)
	o.mu.Unlock()
	notify()
	return order, nil
}

// handleBackendError drops the session when the backend rejected it.
func (o *Orchestrator) handleBackendError(err error) {
	if !errors.Is(err, ErrUnauthorized) {
		return
	}
	o.mu.Lock()
	o.session = nil
	o.address = nil
	notify := o.setState(Anonymous)
	o.mu.Unlock()
	notify()
}

// Close abandons checkout. The session survives.
func (o *Orchestrator) Close() error {
	if o.InFlight() {
		return ErrBusy
	}
	o.mu.Lock()
	o.checkingOut = false
	o.pending = nil
	notify := o.setState(Idle)
	o.mu.Unlock()
	notify()
	return nil
}

// Logout forgets the session and returns to Idle.
func (o *Orchestrator) Logout() error {
	if o.InFlight() {
		return ErrBusy
	}
	o.mu.Lock()
	o.session = nil
	o.address = nil
	o.pending = nil
	o.checkingOut = false
	notify := o.setState(Idle)
	o.mu.Unlock()
	notify()
	return nil
}

func toOrderItems(lines []cart.LineItem) []api.OrderItem {
	items := make([]api.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = api.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Image:     l.Image,
			Quantity:  l.Quantity,
			Discount:  l.Discount,
			Size:      l.Size,
		}
	}
	return items
}

// linesTotal sums one cart snapshot so items and total always agree.
func linesTotal(lines []cart.LineItem) float64 {
	var total float64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return roundCents(total)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
