package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/core/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
)

type ClientServiceTestSuite struct {
	suite.Suite
	mockClientRepo *MockClientRepository
	auditor        *stubAuditor
	service        portssvc.ClientSvcFacade
}

func (suite *ClientServiceTestSuite) SetupTest() {
	suite.mockClientRepo = new(MockClientRepository)
	suite.auditor = &stubAuditor{}
	suite.service = services.NewClientService(suite.mockClientRepo, suite.auditor)
}

func (suite *ClientServiceTestSuite) TestCreateClient_NormalizesName() {
	ctx := context.Background()
	req := dto.CreateClientRequest{Name: "  Acme Trading Corp  "}

	suite.mockClientRepo.On("SaveClient", ctx, mock.MatchedBy(func(c domain.Client) bool {
		return c.Name == "  Acme Trading Corp  " &&
			c.NormalizedName == "acme trading corp" &&
			c.Status == domain.ClientActive
	})).Return(nil).Once()

	client, err := suite.service.CreateClient(ctx, req, "actor-1")

	suite.NoError(err)
	suite.Equal("acme trading corp", client.NormalizedName)
	suite.Contains(suite.auditor.actions(), "client.create")
	suite.mockClientRepo.AssertExpectations(suite.T())
}

func (suite *ClientServiceTestSuite) TestCreateClient_BlankNameRejected() {
	ctx := context.Background()

	client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "   "}, "actor-1")

	suite.Nil(client)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockClientRepo.AssertNotCalled(suite.T(), "SaveClient", mock.Anything, mock.Anything)
}

func (suite *ClientServiceTestSuite) TestCreateClient_DuplicateName() {
	ctx := context.Background()

	suite.mockClientRepo.On("SaveClient", ctx, mock.AnythingOfType("domain.Client")).
		Return(apperrors.ErrDuplicate).Once()

	client, err := suite.service.CreateClient(ctx, dto.CreateClientRequest{Name: "Acme Trading Corp"}, "actor-1")

	suite.Nil(client)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *ClientServiceTestSuite) TestDeleteClient_ProtectedChildrenRejected() {
	ctx := context.Background()

	suite.mockClientRepo.On("FindClientByID", ctx, "client-1").
		Return(&domain.Client{ClientID: "client-1"}, nil).Once()
	suite.mockClientRepo.On("HasProtectedChildren", ctx, "client-1").Return(true, nil).Once()

	err := suite.service.DeleteClient(ctx, "client-1", "actor-1")

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockClientRepo.AssertNotCalled(suite.T(), "DeleteClient", mock.Anything, mock.Anything)
}

func (suite *ClientServiceTestSuite) TestDeleteClient_Success() {
	ctx := context.Background()

	suite.mockClientRepo.On("FindClientByID", ctx, "client-1").
		Return(&domain.Client{ClientID: "client-1"}, nil).Once()
	suite.mockClientRepo.On("HasProtectedChildren", ctx, "client-1").Return(false, nil).Once()
	suite.mockClientRepo.On("DeleteClient", ctx, "client-1").Return(nil).Once()

	err := suite.service.DeleteClient(ctx, "client-1", "actor-1")

	suite.NoError(err)
	suite.Contains(suite.auditor.actions(), "client.delete")
	suite.mockClientRepo.AssertExpectations(suite.T())
}

func (suite *ClientServiceTestSuite) TestAddContact_DefaultsRole() {
	ctx := context.Background()

	suite.mockClientRepo.On("FindClientByID", ctx, "client-1").
		Return(&domain.Client{ClientID: "client-1"}, nil).Once()
	suite.mockClientRepo.On("SaveContact", ctx, mock.MatchedBy(func(c domain.Contact) bool {
		return c.ClientID == "client-1" && c.Role == domain.ContactOther
	})).Return(nil).Once()

	contact, err := suite.service.AddContact(ctx, "client-1", dto.CreateContactRequest{Name: "R. Santos"}, "actor-1")

	suite.NoError(err)
	suite.Equal(domain.ContactOther, contact.Role)
	suite.mockClientRepo.AssertExpectations(suite.T())
}

func TestClientService(t *testing.T) {
	suite.Run(t, new(ClientServiceTestSuite))
}
