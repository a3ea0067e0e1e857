package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/core/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

type StatementServiceTestSuite struct {
	suite.Suite
	mockStatementRepo  *MockStatementRepository
	mockEngagementRepo *MockEngagementRepository
	mockClientRepo     *MockClientRepository
	mockSequenceSvc    *MockSequenceSvc
	mockRenderer       *MockRenderer
	auditor            *stubAuditor
	service            portssvc.StatementSvcFacade
}

func (suite *StatementServiceTestSuite) SetupTest() {
	suite.mockStatementRepo = new(MockStatementRepository)
	suite.mockEngagementRepo = new(MockEngagementRepository)
	suite.mockClientRepo = new(MockClientRepository)
	suite.mockSequenceSvc = new(MockSequenceSvc)
	suite.mockRenderer = new(MockRenderer)
	suite.auditor = &stubAuditor{}
	suite.service = services.NewStatementService(
		suite.mockStatementRepo,
		suite.mockEngagementRepo,
		suite.mockClientRepo,
		suite.mockSequenceSvc,
		suite.mockRenderer,
		suite.auditor,
	)
}

func (suite *StatementServiceTestSuite) draftStatement() *domain.BillingStatement {
	return &domain.BillingStatement{
		StatementID:  "stmt-1",
		ClientID:     "client-1",
		EngagementID: "eng-1",
		Period:       "2025-06",
		Currency:     domain.SettlementCurrency,
		Status:       domain.StatementDraft,
		SubTotal:     decimal.NewFromInt(5000),
		PaidToDate:   decimal.Zero,
		Balance:      decimal.NewFromInt(5000),
	}
}

func (suite *StatementServiceTestSuite) TestCreateStatement_Success() {
	ctx := context.Background()
	req := dto.CreateStatementRequest{
		ClientID:     "client-1",
		EngagementID: "eng-1",
		Period:       "2025-06",
		Notes:        "June retainer",
	}

	suite.mockEngagementRepo.On("FindEngagementByID", ctx, "eng-1").
		Return(&domain.Engagement{EngagementID: "eng-1", ClientID: "client-1"}, nil).Once()
	suite.mockStatementRepo.On("CreateStatement", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.ClientID == "client-1" &&
			s.Status == domain.StatementDraft &&
			s.Currency == domain.SettlementCurrency &&
			s.IdempotencyHash == domain.StatementIdempotencyHash("client-1", "eng-1", "2025-06")
	}), (*domain.BillingItem)(nil)).Return(nil).Once()

	statement, err := suite.service.CreateStatement(ctx, req, "actor-1")

	suite.NoError(err)
	suite.NotNil(statement)
	suite.Equal(domain.StatementDraft, statement.Status)
	suite.NotEmpty(statement.StatementID)
	suite.Contains(suite.auditor.actions(), "statement.create")
	suite.mockStatementRepo.AssertExpectations(suite.T())
	suite.mockEngagementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestCreateStatement_InvalidPeriod() {
	ctx := context.Background()
	req := dto.CreateStatementRequest{ClientID: "client-1", EngagementID: "eng-1", Period: "2025/06"}

	statement, err := suite.service.CreateStatement(ctx, req, "actor-1")

	suite.Nil(statement)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockEngagementRepo.AssertNotCalled(suite.T(), "FindEngagementByID", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestCreateStatement_EngagementClientMismatch() {
	ctx := context.Background()
	req := dto.CreateStatementRequest{ClientID: "client-1", EngagementID: "eng-1", Period: "2025-06"}

	suite.mockEngagementRepo.On("FindEngagementByID", ctx, "eng-1").
		Return(&domain.Engagement{EngagementID: "eng-1", ClientID: "client-other"}, nil).Once()

	statement, err := suite.service.CreateStatement(ctx, req, "actor-1")

	suite.Nil(statement)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "CreateStatement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestCreateStatement_DuplicatePeriod() {
	ctx := context.Background()
	req := dto.CreateStatementRequest{ClientID: "client-1", EngagementID: "eng-1", Period: "2025-06"}

	suite.mockEngagementRepo.On("FindEngagementByID", ctx, "eng-1").
		Return(&domain.Engagement{EngagementID: "eng-1", ClientID: "client-1"}, nil).Once()
	suite.mockStatementRepo.On("CreateStatement", ctx, mock.AnythingOfType("domain.BillingStatement"), (*domain.BillingItem)(nil)).
		Return(apperrors.ErrDuplicate).Once()

	statement, err := suite.service.CreateStatement(ctx, req, "actor-1")

	suite.Nil(statement)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *StatementServiceTestSuite) TestUpdateStatement_IssuedRejected() {
	ctx := context.Background()
	issued := suite.draftStatement()
	issued.Status = domain.StatementIssued

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(issued, nil).Once()

	notes := "edited"
	_, err := suite.service.UpdateStatement(ctx, "stmt-1", dto.UpdateStatementRequest{Notes: &notes}, "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "UpdateStatementHeader", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestDeleteStatement_WithPaymentsRejected() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.PaidToDate = decimal.NewFromInt(1000)

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()

	err := suite.service.DeleteStatement(ctx, "stmt-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "DeleteStatement", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestDeleteStatement_NonDraftRejected() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementIssued

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()

	err := suite.service.DeleteStatement(ctx, "stmt-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *StatementServiceTestSuite) TestAddItem_NonPositiveQtyRejected() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.draftStatement(), nil).Once()

	req := dto.SaveItemRequest{
		Description: "Retainer services",
		Qty:         decimal.Zero,
		UnitPrice:   decimal.NewFromInt(5000),
	}
	item, err := suite.service.AddItem(ctx, "stmt-1", req, "actor-1")

	suite.Nil(item)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "SaveItem", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestAddItem_ComputesLineTotal() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.draftStatement(), nil).Once()
	suite.mockStatementRepo.On("SaveItem", ctx, mock.MatchedBy(func(item domain.BillingItem) bool {
		return item.LineTotal.Equal(decimal.NewFromInt(7500))
	})).Return(nil).Once()

	req := dto.SaveItemRequest{
		Description: "Advisory hours",
		Qty:         decimal.NewFromInt(3),
		Unit:        "hour",
		UnitPrice:   decimal.NewFromInt(2500),
	}
	item, err := suite.service.AddItem(ctx, "stmt-1", req, "actor-1")

	suite.NoError(err)
	suite.True(item.LineTotal.Equal(decimal.NewFromInt(7500)))
	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestSubmitForReview_NonDraftRejected() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementPendingReview

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()

	_, err := suite.service.SubmitForReview(ctx, "stmt-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *StatementServiceTestSuite) expectRenderChain(ctx context.Context, statementID string, force bool, pdfPath string) {
	suite.mockClientRepo.On("FindClientByID", ctx, "client-1").
		Return(&domain.Client{ClientID: "client-1", Name: "Acme Trading"}, nil).Once()
	suite.mockEngagementRepo.On("FindEngagementByID", ctx, "eng-1").
		Return(&domain.Engagement{EngagementID: "eng-1", ClientID: "client-1"}, nil).Once()
	suite.mockStatementRepo.On("FindItemsByStatementID", ctx, statementID).
		Return([]domain.BillingItem{{ItemID: "item-1", StatementID: statementID}}, nil).Once()
	suite.mockRenderer.On("RenderStatement", ctx,
		mock.AnythingOfType("domain.BillingStatement"),
		mock.AnythingOfType("domain.Client"),
		mock.AnythingOfType("domain.Engagement"),
		mock.AnythingOfType("[]domain.BillingItem"),
		force).Return(pdfPath, nil).Once()
	suite.mockStatementRepo.On("UpdatePDFPath", ctx, statementID, pdfPath, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil).Once()
}

func (suite *StatementServiceTestSuite) TestIssue_AssignsSequenceNumber() {
	ctx := context.Background()
	statement := suite.draftStatement()
	issueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()
	suite.mockSequenceSvc.On("Next", ctx, domain.StatementSequenceCode, "actor-1").
		Return("SOA-2025-0042", nil).Once()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.Number == "SOA-2025-0042" && s.Status == domain.StatementIssued &&
			s.DueDate != nil && s.DueDate.Equal(dueDate)
	})).Return(nil).Once()
	suite.expectRenderChain(ctx, "stmt-1", false, "statements/SOA-2025-0042.pdf")

	issued, err := suite.service.Issue(ctx, "stmt-1", dto.IssueStatementRequest{IssueDate: &issueDate, DueDate: dueDate}, "actor-1")

	suite.Require().NoError(err)
	suite.Equal("SOA-2025-0042", issued.Number)
	suite.Equal(domain.StatementIssued, issued.Status)
	suite.Equal("statements/SOA-2025-0042.pdf", issued.PDFPath)
	suite.Contains(suite.auditor.actions(), "statement.issue")
	suite.mockStatementRepo.AssertExpectations(suite.T())
	suite.mockSequenceSvc.AssertExpectations(suite.T())
	suite.mockRenderer.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestIssue_ManualNumberSkipsSequence() {
	ctx := context.Background()
	statement := suite.draftStatement()
	issueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.Number == "SOA-LEGACY-007"
	})).Return(nil).Once()
	suite.expectRenderChain(ctx, "stmt-1", false, "statements/SOA-LEGACY-007.pdf")

	issued, err := suite.service.Issue(ctx, "stmt-1", dto.IssueStatementRequest{IssueDate: &issueDate, DueDate: dueDate, Number: "SOA-LEGACY-007"}, "actor-1")

	suite.Require().NoError(err)
	suite.Equal("SOA-LEGACY-007", issued.Number)
	suite.mockSequenceSvc.AssertNotCalled(suite.T(), "Next", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestIssue_NotIssuable() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementVoid

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()

	_, err := suite.service.Issue(ctx, "stmt-1", dto.IssueStatementRequest{DueDate: time.Now()}, "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "MarkIssued", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestIssue_DueBeforeIssueRejected() {
	ctx := context.Background()
	issueDate := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.draftStatement(), nil).Once()

	_, err := suite.service.Issue(ctx, "stmt-1", dto.IssueStatementRequest{IssueDate: &issueDate, DueDate: dueDate}, "actor-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *StatementServiceTestSuite) TestIssue_DuplicateNumber() {
	ctx := context.Background()
	issueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.draftStatement(), nil).Once()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.AnythingOfType("domain.BillingStatement")).
		Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.Issue(ctx, "stmt-1", dto.IssueStatementRequest{IssueDate: &issueDate, DueDate: dueDate, Number: "SOA-2025-0001"}, "actor-1")

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *StatementServiceTestSuite) TestVoid_Idempotent() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementVoid

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()

	voided, err := suite.service.Void(ctx, "stmt-1", "duplicate entry", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.StatementVoid, voided.Status)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "UpdateStatementStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestVoid_AppendsReasonToNotes() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementIssued
	statement.Notes = "June retainer"

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, "stmt-1", domain.StatementVoid,
		"June retainer\nVoided: wrong client", "actor-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	voided, err := suite.service.Void(ctx, "stmt-1", "wrong client", "actor-1")

	suite.NoError(err)
	suite.Equal(domain.StatementVoid, voided.Status)
	suite.Contains(suite.auditor.actions(), "statement.void")
	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestBatchIssue_SkipsMissingAndIneligible() {
	ctx := context.Background()
	issueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)

	eligible := *suite.draftStatement()
	voided := *suite.draftStatement()
	voided.StatementID = "stmt-2"
	voided.Status = domain.StatementVoid

	suite.mockStatementRepo.On("FindStatementsByIDs", ctx, []string{"stmt-1", "stmt-2", "stmt-missing"}).
		Return(map[string]domain.BillingStatement{"stmt-1": eligible, "stmt-2": voided}, nil).Once()
	suite.mockSequenceSvc.On("Next", ctx, domain.StatementSequenceCode, "actor-1").
		Return("SOA-2025-0043", nil).Once()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.StatementID == "stmt-1"
	})).Return(nil).Once()
	suite.expectRenderChain(ctx, "stmt-1", false, "statements/SOA-2025-0043.pdf")

	req := dto.BatchIssueRequest{
		StatementIDs: []string{"stmt-1", "stmt-2", "stmt-missing"},
		IssueDate:    issueDate,
		DueDate:      dueDate,
	}
	resp, err := suite.service.BatchIssue(ctx, req, "actor-1")

	suite.NoError(err)
	suite.Equal([]string{"stmt-1"}, resp.Issued)
	suite.Equal([]string{"stmt-2", "stmt-missing"}, resp.Skipped)
	suite.mockSequenceSvc.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestBatchIssue_FailureDoesNotAbortBatch() {
	ctx := context.Background()
	issueDate := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	dueDate := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)

	first := *suite.draftStatement()
	second := *suite.draftStatement()
	second.StatementID = "stmt-2"

	suite.mockStatementRepo.On("FindStatementsByIDs", ctx, []string{"stmt-1", "stmt-2"}).
		Return(map[string]domain.BillingStatement{"stmt-1": first, "stmt-2": second}, nil).Once()
	suite.mockSequenceSvc.On("Next", ctx, domain.StatementSequenceCode, "actor-1").
		Return("SOA-2025-0044", nil).Twice()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.StatementID == "stmt-1"
	})).Return(assert.AnError).Once()
	suite.mockStatementRepo.On("MarkIssued", ctx, mock.MatchedBy(func(s domain.BillingStatement) bool {
		return s.StatementID == "stmt-2"
	})).Return(nil).Once()
	suite.expectRenderChain(ctx, "stmt-2", false, "statements/stmt-2.pdf")

	req := dto.BatchIssueRequest{StatementIDs: []string{"stmt-1", "stmt-2"}, IssueDate: issueDate, DueDate: dueDate}
	resp, err := suite.service.BatchIssue(ctx, req, "actor-1")

	suite.NoError(err)
	suite.Equal([]string{"stmt-2"}, resp.Issued)
	suite.Equal([]string{"stmt-1"}, resp.Skipped)
}

func (suite *StatementServiceTestSuite) TestBatchIssue_DueBeforeIssueRejected() {
	ctx := context.Background()
	req := dto.BatchIssueRequest{
		StatementIDs: []string{"stmt-1"},
		IssueDate:    time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	resp, err := suite.service.BatchIssue(ctx, req, "actor-1")

	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "FindStatementsByIDs", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestRefreshPDF_DraftRejected() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(suite.draftStatement(), nil).Once()

	_, err := suite.service.RefreshPDF(ctx, "stmt-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockRenderer.AssertNotCalled(suite.T(), "RenderStatement",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestRefreshPDF_ForcesReRender() {
	ctx := context.Background()
	statement := suite.draftStatement()
	statement.Status = domain.StatementIssued
	statement.Number = "SOA-2025-0042"

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()
	suite.expectRenderChain(ctx, "stmt-1", true, "statements/SOA-2025-0042.pdf")

	pdfPath, err := suite.service.RefreshPDF(ctx, "stmt-1", "actor-1")

	suite.NoError(err)
	suite.Equal("statements/SOA-2025-0042.pdf", pdfPath)
	suite.Contains(suite.auditor.actions(), "statement.refresh_pdf")
	suite.mockRenderer.AssertExpectations(suite.T())
}

func TestStatementService(t *testing.T) {
	suite.Run(t, new(StatementServiceTestSuite))
}
