package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/core/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo   *MockPaymentRepository
	mockStatementRepo *MockStatementRepository
	auditor           *stubAuditor
	service           portssvc.PaymentSvcFacade
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockStatementRepo = new(MockStatementRepository)
	suite.auditor = &stubAuditor{}
	suite.service = services.NewPaymentService(suite.mockPaymentRepo, suite.mockStatementRepo, suite.auditor)
}

func (suite *PaymentServiceTestSuite) postedPayment(amount int64) *domain.Payment {
	value := decimal.NewFromInt(amount)
	return &domain.Payment{
		PaymentID:            "pay-1",
		ClientID:             "client-1",
		AmountReceived:       value,
		Currency:             domain.SettlementCurrency,
		Method:               domain.MethodBPITransfer,
		Status:               domain.PaymentPosted,
		RemainingUnallocated: value,
	}
}

func (suite *PaymentServiceTestSuite) issuedStatement(id string) *domain.BillingStatement {
	return &domain.BillingStatement{
		StatementID: id,
		ClientID:    "client-1",
		Status:      domain.StatementIssued,
		Balance:     decimal.NewFromInt(10000),
	}
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_Success() {
	ctx := context.Background()
	req := dto.CreatePaymentRequest{
		ClientID:        "client-1",
		PaymentDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		AmountReceived:  decimal.NewFromInt(15000),
		Method:          domain.MethodGCash,
		ManualInvoiceNo: "INV-0099",
	}

	suite.mockPaymentRepo.On("SavePayment", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentPosted &&
			p.RemainingUnallocated.Equal(decimal.NewFromInt(15000)) &&
			p.RecordedBy == "actor-1"
	})).Return(nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentPosted, payment.Status)
	suite.True(payment.RemainingUnallocated.Equal(req.AmountReceived))
	suite.Contains(suite.auditor.actions(), "payment.create")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_DraftFlag() {
	ctx := context.Background()
	req := dto.CreatePaymentRequest{
		ClientID:        "client-1",
		PaymentDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		AmountReceived:  decimal.NewFromInt(15000),
		Method:          domain.MethodGCash,
		ManualInvoiceNo: "INV-0099",
		Draft:           true,
	}

	suite.mockPaymentRepo.On("SavePayment", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentDraft
	})).Return(nil).Once()

	payment, err := suite.service.CreatePayment(ctx, req, "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentDraft, payment.Status)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.CreatePaymentRequest{ClientID: "client-1", AmountReceived: decimal.Zero, Method: domain.MethodCash}

	payment, err := suite.service.CreatePayment(ctx, req, "actor-1")

	suite.Nil(payment)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestCreatePayment_UnknownMethod() {
	ctx := context.Background()
	req := dto.CreatePaymentRequest{
		ClientID:       "client-1",
		AmountReceived: decimal.NewFromInt(100),
		Method:         domain.PaymentMethod("bitcoin"),
	}

	payment, err := suite.service.CreatePayment(ctx, req, "actor-1")

	suite.Nil(payment)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestMarkPosted_Success() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentDraft

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentPosted && p.LastUpdatedBy == "actor-1"
	})).Return(nil).Once()

	posted, err := suite.service.MarkPosted(ctx, "pay-1", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentPosted, posted.Status)
	suite.Contains(suite.auditor.actions(), "payment.post")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestMarkPosted_AlreadyPostedNoOp() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()

	posted, err := suite.service.MarkPosted(ctx, "pay-1", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentPosted, posted.Status)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "UpdatePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestMarkPosted_VoidRejected() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()

	_, err := suite.service.MarkPosted(ctx, "pay-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PaymentServiceTestSuite) TestMarkVerified_Success() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentVerified && p.VerifiedBy != nil && *p.VerifiedBy == "reviewer-1" && p.VerifiedAt != nil
	})).Return(nil).Once()

	payment, err := suite.service.MarkVerified(ctx, "pay-1", "reviewer-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentVerified, payment.Status)
	suite.Contains(suite.auditor.actions(), "payment.verify")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestMarkVerified_AlreadyVerifiedNoOp() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentVerified

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()

	result, err := suite.service.MarkVerified(ctx, "pay-1", "reviewer-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentVerified, result.Status)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "UpdatePayment", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestMarkVerified_VoidRejected() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()

	_, err := suite.service.MarkVerified(ctx, "pay-1", "reviewer-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PaymentServiceTestSuite) TestVoid_RollsBackAllocations() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Notes = "June collection"
	payment.RemainingUnallocated = decimal.NewFromInt(5000)

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	// With every allocation rolled back the remainder equals the full
	// received amount again.
	suite.mockPaymentRepo.On("VoidPaymentWithRollback", ctx, mock.MatchedBy(func(p domain.Payment) bool {
		return p.Status == domain.PaymentVoid &&
			p.RemainingUnallocated.Equal(decimal.NewFromInt(15000)) &&
			p.Notes == "June collection\nVoided: bounced check"
	})).Return(nil).Once()

	voided, err := suite.service.Void(ctx, "pay-1", "bounced check", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentVoid, voided.Status)
	suite.True(voided.RemainingUnallocated.Equal(voided.AmountReceived))
	suite.Contains(suite.auditor.actions(), "payment.void")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestVoid_Idempotent() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()

	voided, err := suite.service.Void(ctx, "pay-1", "again", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.PaymentVoid, voided.Status)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "VoidPaymentWithRollback", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestAllocate_RemainderBecomesCredit() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("ReplaceAllocations", ctx,
		mock.MatchedBy(func(p domain.Payment) bool {
			return p.RemainingUnallocated.Equal(decimal.NewFromInt(5000))
		}),
		mock.MatchedBy(func(allocations []domain.PaymentAllocation) bool {
			return len(allocations) == 1 && allocations[0].StatementID == "stmt-1" &&
				allocations[0].AmountApplied.Equal(decimal.NewFromInt(10000))
		}),
		mock.MatchedBy(func(credit *domain.UnappliedCredit) bool {
			return credit != nil &&
				credit.Amount.Equal(decimal.NewFromInt(5000)) &&
				credit.Reason == services.UnallocatedRemainderReason &&
				credit.Status == domain.CreditOpen &&
				credit.SourcePaymentID == "pay-1"
		}),
	).Return(nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(10000)},
	}}
	payment, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.NoError(err)
	suite.True(payment.RemainingUnallocated.Equal(decimal.NewFromInt(5000)))
	suite.Contains(suite.auditor.actions(), "payment.allocate")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestAllocate_FullAmountProducesNoCredit() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(10000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("ReplaceAllocations", ctx,
		mock.AnythingOfType("domain.Payment"),
		mock.AnythingOfType("[]domain.PaymentAllocation"),
		(*domain.UnappliedCredit)(nil),
	).Return(nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(10000)},
	}}
	payment, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.NoError(err)
	suite.True(payment.RemainingUnallocated.IsZero())
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestAllocate_OverAllocationRejected() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(5000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(6000)},
	}}
	_, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ReplaceAllocations",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestAllocate_DuplicateStatementRejected() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5000)},
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5000)},
	}}
	_, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestAllocate_ForeignStatementRejected() {
	ctx := context.Background()
	foreign := suite.issuedStatement("stmt-1")
	foreign.ClientID = "client-other"

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(foreign, nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5000)},
	}}
	_, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestAllocate_PendingReviewStatementAccepted() {
	ctx := context.Background()
	pending := suite.issuedStatement("stmt-1")
	pending.Status = domain.StatementPendingReview

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(10000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(pending, nil).Once()
	suite.mockPaymentRepo.On("ReplaceAllocations", ctx,
		mock.AnythingOfType("domain.Payment"),
		mock.AnythingOfType("[]domain.PaymentAllocation"),
		(*domain.UnappliedCredit)(nil),
	).Return(nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(10000)},
	}}
	_, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.NoError(err)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestAllocate_VoidStatementRejected() {
	ctx := context.Background()
	voided := suite.issuedStatement("stmt-1")
	voided.Status = domain.StatementVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(voided, nil).Once()

	req := dto.AllocateRequest{Allocations: []dto.AllocationInput{
		{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5000)},
	}}
	_, err := suite.service.Allocate(ctx, "pay-1", req, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ReplaceAllocations",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestAllocate_VoidPaymentRejected() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.Status = domain.PaymentVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()

	_, err := suite.service.Allocate(ctx, "pay-1", dto.AllocateRequest{}, "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PaymentServiceTestSuite) TestSaveAllocation_ResizeUsesRemainderPlusOwnAmount() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.RemainingUnallocated = decimal.NewFromInt(2000)
	existing := &domain.PaymentAllocation{
		AllocationID:  "alloc-1",
		PaymentID:     "pay-1",
		StatementID:   "stmt-1",
		AmountApplied: decimal.NewFromInt(3000),
	}

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("FindAllocationByID", ctx, "alloc-1").Return(existing, nil).Once()
	// 2000 remaining + 3000 own previous amount allows a resize to 5000.
	suite.mockPaymentRepo.On("SaveAllocation", ctx, mock.MatchedBy(func(a domain.PaymentAllocation) bool {
		return a.AllocationID == "alloc-1" && a.AmountApplied.Equal(decimal.NewFromInt(5000))
	})).Return(nil).Once()

	allocationID := "alloc-1"
	input := dto.AllocationInput{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5000)}
	allocation, err := suite.service.SaveAllocation(ctx, "pay-1", input, &allocationID, "actor-1")

	suite.NoError(err)
	suite.True(allocation.AmountApplied.Equal(decimal.NewFromInt(5000)))
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestSaveAllocation_ResizeBeyondAvailableRejected() {
	ctx := context.Background()
	payment := suite.postedPayment(15000)
	payment.RemainingUnallocated = decimal.NewFromInt(2000)
	existing := &domain.PaymentAllocation{
		AllocationID:  "alloc-1",
		PaymentID:     "pay-1",
		StatementID:   "stmt-1",
		AmountApplied: decimal.NewFromInt(3000),
	}

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(payment, nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("FindAllocationByID", ctx, "alloc-1").Return(existing, nil).Once()

	allocationID := "alloc-1"
	input := dto.AllocationInput{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(5001)}
	_, err := suite.service.SaveAllocation(ctx, "pay-1", input, &allocationID, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestSaveAllocation_ForeignAllocationRejected() {
	ctx := context.Background()
	existing := &domain.PaymentAllocation{
		AllocationID:  "alloc-1",
		PaymentID:     "pay-other",
		StatementID:   "stmt-1",
		AmountApplied: decimal.NewFromInt(3000),
	}

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("FindAllocationByID", ctx, "alloc-1").Return(existing, nil).Once()

	allocationID := "alloc-1"
	input := dto.AllocationInput{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(1000)}
	_, err := suite.service.SaveAllocation(ctx, "pay-1", input, &allocationID, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PaymentServiceTestSuite) TestSaveAllocation_InsertDuplicateTarget() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.issuedStatement("stmt-1"), nil).Once()
	suite.mockPaymentRepo.On("SaveAllocation", ctx, mock.AnythingOfType("domain.PaymentAllocation")).
		Return(apperrors.ErrDuplicate).Once()

	input := dto.AllocationInput{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(1000)}
	_, err := suite.service.SaveAllocation(ctx, "pay-1", input, nil, "actor-1")

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *PaymentServiceTestSuite) TestSaveAllocation_VoidStatementRejected() {
	ctx := context.Background()
	voided := suite.issuedStatement("stmt-1")
	voided.Status = domain.StatementVoid

	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(voided, nil).Once()

	input := dto.AllocationInput{StatementID: "stmt-1", AmountApplied: decimal.NewFromInt(1000)}
	_, err := suite.service.SaveAllocation(ctx, "pay-1", input, nil, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestRemoveAllocation_AttributesActor() {
	ctx := context.Background()
	existing := &domain.PaymentAllocation{
		AllocationID:  "alloc-1",
		PaymentID:     "pay-1",
		StatementID:   "stmt-1",
		AmountApplied: decimal.NewFromInt(3000),
	}

	suite.mockPaymentRepo.On("FindAllocationByID", ctx, "alloc-1").Return(existing, nil).Once()
	suite.mockPaymentRepo.On("DeleteAllocation", ctx, "alloc-1", "actor-1").Return(nil).Once()

	err := suite.service.RemoveAllocation(ctx, "alloc-1", "actor-1")

	suite.NoError(err)
	suite.Contains(suite.auditor.actions(), "payment.allocation.remove")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestMarkCreditApplied_Success() {
	ctx := context.Background()
	credit := &domain.UnappliedCredit{CreditID: "credit-1", ClientID: "client-1", Status: domain.CreditOpen}

	suite.mockPaymentRepo.On("FindCreditByID", ctx, "credit-1").Return(credit, nil).Once()
	suite.mockPaymentRepo.On("UpdateCreditStatus", ctx, "credit-1", domain.CreditApplied, "actor-1").Return(nil).Once()

	updated, err := suite.service.MarkCreditApplied(ctx, "credit-1", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.CreditApplied, updated.Status)
	suite.Contains(suite.auditor.actions(), "credit.applied")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *PaymentServiceTestSuite) TestMarkCreditApplied_SameStatusNoOp() {
	ctx := context.Background()
	credit := &domain.UnappliedCredit{CreditID: "credit-1", Status: domain.CreditApplied}

	suite.mockPaymentRepo.On("FindCreditByID", ctx, "credit-1").Return(credit, nil).Once()

	updated, err := suite.service.MarkCreditApplied(ctx, "credit-1", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.CreditApplied, updated.Status)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "UpdateCreditStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentServiceTestSuite) TestMarkCreditRefunded_NonOpenRejected() {
	ctx := context.Background()
	credit := &domain.UnappliedCredit{CreditID: "credit-1", Status: domain.CreditApplied}

	suite.mockPaymentRepo.On("FindCreditByID", ctx, "credit-1").Return(credit, nil).Once()

	_, err := suite.service.MarkCreditRefunded(ctx, "credit-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *PaymentServiceTestSuite) TestDeleteWithCascadeCleanup() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, "pay-1").Return(suite.postedPayment(15000), nil).Once()
	suite.mockPaymentRepo.On("DeletePaymentCascade", ctx, "pay-1").Return(nil).Once()

	err := suite.service.DeleteWithCascadeCleanup(ctx, "pay-1", "actor-1")

	suite.NoError(err)
	suite.Contains(suite.auditor.actions(), "payment.delete")
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
