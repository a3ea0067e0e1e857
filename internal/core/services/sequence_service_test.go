package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/core/services"
)

type SequenceServiceTestSuite struct {
	suite.Suite
	mockAllocator *MockSequenceAllocator
	service       portssvc.SequenceSvcFacade
}

func (suite *SequenceServiceTestSuite) SetupTest() {
	suite.mockAllocator = new(MockSequenceAllocator)
	suite.service = services.NewSequenceService(suite.mockAllocator)
}

func (suite *SequenceServiceTestSuite) TestNext_ReturnsAllocatedNumber() {
	ctx := context.Background()
	suite.mockAllocator.On("NextNumber", ctx, domain.StatementSequenceCode, "actor-1", mock.AnythingOfType("time.Time")).
		Return("SOA-2025-0042", nil).Once()

	number, err := suite.service.Next(ctx, domain.StatementSequenceCode, "actor-1")

	suite.NoError(err)
	suite.Equal("SOA-2025-0042", number)
	suite.mockAllocator.AssertExpectations(suite.T())
}

func (suite *SequenceServiceTestSuite) TestNext_EmptyCodeRejected() {
	ctx := context.Background()

	number, err := suite.service.Next(ctx, "", "actor-1")

	suite.Empty(number)
	suite.Error(err)
	suite.mockAllocator.AssertNotCalled(suite.T(), "NextNumber", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SequenceServiceTestSuite) TestNext_AllocatorErrorWrapped() {
	ctx := context.Background()
	suite.mockAllocator.On("NextNumber", ctx, "SOA", "actor-1", mock.AnythingOfType("time.Time")).
		Return("", assert.AnError).Once()

	number, err := suite.service.Next(ctx, "SOA", "actor-1")

	suite.Empty(number)
	suite.ErrorIs(err, assert.AnError)
}

func TestSequenceService(t *testing.T) {
	suite.Run(t, new(SequenceServiceTestSuite))
}
