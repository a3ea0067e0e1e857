package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

// --- Mock StatementRepository ---

type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) FindStatementByID(ctx context.Context, statementID string) (*domain.BillingStatement, error) {
	args := m.Called(ctx, statementID)
	var statement *domain.BillingStatement
	if args.Get(0) != nil {
		statement = args.Get(0).(*domain.BillingStatement)
	}
	return statement, args.Error(1)
}

func (m *MockStatementRepository) FindStatementsByIDs(ctx context.Context, statementIDs []string) (map[string]domain.BillingStatement, error) {
	args := m.Called(ctx, statementIDs)
	var statements map[string]domain.BillingStatement
	if args.Get(0) != nil {
		statements = args.Get(0).(map[string]domain.BillingStatement)
	}
	return statements, args.Error(1)
}

func (m *MockStatementRepository) ListStatements(ctx context.Context, filter portsrepo.StatementFilter, limit int, offset int) ([]domain.BillingStatement, error) {
	args := m.Called(ctx, filter, limit, offset)
	var statements []domain.BillingStatement
	if args.Get(0) != nil {
		statements = args.Get(0).([]domain.BillingStatement)
	}
	return statements, args.Error(1)
}

func (m *MockStatementRepository) FindItemsByStatementID(ctx context.Context, statementID string) ([]domain.BillingItem, error) {
	args := m.Called(ctx, statementID)
	var items []domain.BillingItem
	if args.Get(0) != nil {
		items = args.Get(0).([]domain.BillingItem)
	}
	return items, args.Error(1)
}

func (m *MockStatementRepository) FindItemByID(ctx context.Context, itemID string) (*domain.BillingItem, error) {
	args := m.Called(ctx, itemID)
	var item *domain.BillingItem
	if args.Get(0) != nil {
		item = args.Get(0).(*domain.BillingItem)
	}
	return item, args.Error(1)
}

func (m *MockStatementRepository) CreateStatement(ctx context.Context, statement domain.BillingStatement, item *domain.BillingItem) error {
	args := m.Called(ctx, statement, item)
	return args.Error(0)
}

func (m *MockStatementRepository) UpdateStatementHeader(ctx context.Context, statement domain.BillingStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) UpdateStatementStatus(ctx context.Context, statementID string, status domain.StatementStatus, notes string, actorID string, at time.Time) error {
	args := m.Called(ctx, statementID, status, notes, actorID, at)
	return args.Error(0)
}

func (m *MockStatementRepository) MarkIssued(ctx context.Context, statement domain.BillingStatement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) UpdatePDFPath(ctx context.Context, statementID string, pdfPath string, actorID string, at time.Time) error {
	args := m.Called(ctx, statementID, pdfPath, actorID, at)
	return args.Error(0)
}

func (m *MockStatementRepository) DeleteStatement(ctx context.Context, statementID string) error {
	args := m.Called(ctx, statementID)
	return args.Error(0)
}

func (m *MockStatementRepository) SaveItem(ctx context.Context, item domain.BillingItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockStatementRepository) DeleteItem(ctx context.Context, itemID string) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockStatementRepository) RecalculateAndSettle(ctx context.Context, statementID string) (*domain.BillingStatement, error) {
	args := m.Called(ctx, statementID)
	var statement *domain.BillingStatement
	if args.Get(0) != nil {
		statement = args.Get(0).(*domain.BillingStatement)
	}
	return statement, args.Error(1)
}

// --- Mock PaymentRepository ---

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	var payment *domain.Payment
	if args.Get(0) != nil {
		payment = args.Get(0).(*domain.Payment)
	}
	return payment, args.Error(1)
}

func (m *MockPaymentRepository) ListPayments(ctx context.Context, filter portsrepo.PaymentFilter, limit int, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, filter, limit, offset)
	var payments []domain.Payment
	if args.Get(0) != nil {
		payments = args.Get(0).([]domain.Payment)
	}
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationsByPaymentID(ctx context.Context, paymentID string) ([]domain.PaymentAllocation, error) {
	args := m.Called(ctx, paymentID)
	var allocations []domain.PaymentAllocation
	if args.Get(0) != nil {
		allocations = args.Get(0).([]domain.PaymentAllocation)
	}
	return allocations, args.Error(1)
}

func (m *MockPaymentRepository) FindAllocationByID(ctx context.Context, allocationID string) (*domain.PaymentAllocation, error) {
	args := m.Called(ctx, allocationID)
	var allocation *domain.PaymentAllocation
	if args.Get(0) != nil {
		allocation = args.Get(0).(*domain.PaymentAllocation)
	}
	return allocation, args.Error(1)
}

func (m *MockPaymentRepository) FindCreditsByClientID(ctx context.Context, clientID string) ([]domain.UnappliedCredit, error) {
	args := m.Called(ctx, clientID)
	var credits []domain.UnappliedCredit
	if args.Get(0) != nil {
		credits = args.Get(0).([]domain.UnappliedCredit)
	}
	return credits, args.Error(1)
}

func (m *MockPaymentRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.UnappliedCredit, error) {
	args := m.Called(ctx, creditID)
	var credit *domain.UnappliedCredit
	if args.Get(0) != nil {
		credit = args.Get(0).(*domain.UnappliedCredit)
	}
	return credit, args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ReplaceAllocations(ctx context.Context, payment domain.Payment, allocations []domain.PaymentAllocation, credit *domain.UnappliedCredit) error {
	args := m.Called(ctx, payment, allocations, credit)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveAllocation(ctx context.Context, allocation domain.PaymentAllocation) error {
	args := m.Called(ctx, allocation)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteAllocation(ctx context.Context, allocationID string, actorID string) error {
	args := m.Called(ctx, allocationID, actorID)
	return args.Error(0)
}

func (m *MockPaymentRepository) VoidPaymentWithRollback(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeletePaymentCascade(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdateCreditStatus(ctx context.Context, creditID string, status domain.CreditStatus, actorID string) error {
	args := m.Called(ctx, creditID, status, actorID)
	return args.Error(0)
}

// --- Mock EngagementRepository ---

type MockEngagementRepository struct {
	mock.Mock
}

func (m *MockEngagementRepository) FindEngagementByID(ctx context.Context, engagementID string) (*domain.Engagement, error) {
	args := m.Called(ctx, engagementID)
	var engagement *domain.Engagement
	if args.Get(0) != nil {
		engagement = args.Get(0).(*domain.Engagement)
	}
	return engagement, args.Error(1)
}

func (m *MockEngagementRepository) ListEngagementsByClient(ctx context.Context, clientID string) ([]domain.Engagement, error) {
	args := m.Called(ctx, clientID)
	var engagements []domain.Engagement
	if args.Get(0) != nil {
		engagements = args.Get(0).([]domain.Engagement)
	}
	return engagements, args.Error(1)
}

func (m *MockEngagementRepository) ListActiveRetainerEngagements(ctx context.Context) ([]domain.Engagement, error) {
	args := m.Called(ctx)
	var engagements []domain.Engagement
	if args.Get(0) != nil {
		engagements = args.Get(0).([]domain.Engagement)
	}
	return engagements, args.Error(1)
}

func (m *MockEngagementRepository) SaveEngagement(ctx context.Context, engagement domain.Engagement) error {
	args := m.Called(ctx, engagement)
	return args.Error(0)
}

func (m *MockEngagementRepository) UpdateEngagement(ctx context.Context, engagement domain.Engagement) error {
	args := m.Called(ctx, engagement)
	return args.Error(0)
}

func (m *MockEngagementRepository) DeleteEngagement(ctx context.Context, engagementID string) error {
	args := m.Called(ctx, engagementID)
	return args.Error(0)
}

// --- Mock ClientRepository ---

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	var client *domain.Client
	if args.Get(0) != nil {
		client = args.Get(0).(*domain.Client)
	}
	return client, args.Error(1)
}

func (m *MockClientRepository) ListClients(ctx context.Context, status *domain.ClientStatus, limit int, offset int) ([]domain.Client, error) {
	args := m.Called(ctx, status, limit, offset)
	var clients []domain.Client
	if args.Get(0) != nil {
		clients = args.Get(0).([]domain.Client)
	}
	return clients, args.Error(1)
}

func (m *MockClientRepository) HasProtectedChildren(ctx context.Context, clientID string) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClientRepository) SaveClient(ctx context.Context, client domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateClient(ctx context.Context, client domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) DeleteClient(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockClientRepository) FindContactsByClientID(ctx context.Context, clientID string) ([]domain.Contact, error) {
	args := m.Called(ctx, clientID)
	var contacts []domain.Contact
	if args.Get(0) != nil {
		contacts = args.Get(0).([]domain.Contact)
	}
	return contacts, args.Error(1)
}

func (m *MockClientRepository) SaveContact(ctx context.Context, contact domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockClientRepository) DeleteContact(ctx context.Context, contactID string) error {
	args := m.Called(ctx, contactID)
	return args.Error(0)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock SequenceAllocator ---

type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) NextNumber(ctx context.Context, code string, actorID string, today time.Time) (string, error) {
	args := m.Called(ctx, code, actorID, today)
	return args.String(0), args.Error(1)
}

// --- Mock SequenceSvc ---

type MockSequenceSvc struct {
	mock.Mock
}

func (m *MockSequenceSvc) Next(ctx context.Context, code string, actorID string) (string, error) {
	args := m.Called(ctx, code, actorID)
	return args.String(0), args.Error(1)
}

// --- Mock StatementRenderer ---

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderStatement(ctx context.Context, statement domain.BillingStatement, client domain.Client, engagement domain.Engagement, items []domain.BillingItem, force bool) (string, error) {
	args := m.Called(ctx, statement, client, engagement, items, force)
	return args.String(0), args.Error(1)
}

// stubAuditor collects recorded entries; recording never fails.
type stubAuditor struct {
	entries []domain.AuditEntry
}

func (a *stubAuditor) Record(_ context.Context, entry domain.AuditEntry) {
	a.entries = append(a.entries, entry)
}

func (a *stubAuditor) actions() []string {
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}
