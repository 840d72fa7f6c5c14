package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordRequest mock
func (me *MetricsEngineMock) RecordRequest(labels Labels) {
	me.Called(labels)
}

// RecordRequestTime mock
func (me *MetricsEngineMock) RecordRequestTime(labels Labels, length time.Duration) {
	me.Called(labels, length)
}

// RecordPartnerRequest mock
func (me *MetricsEngineMock) RecordPartnerRequest(labels PartnerLabels) {
	me.Called(labels)
}

// RecordPartnerTime mock
func (me *MetricsEngineMock) RecordPartnerTime(labels PartnerLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordPartnerPrice mock
func (me *MetricsEngineMock) RecordPartnerPrice(labels PartnerLabels, price float64) {
	me.Called(labels, price)
}

// RecordPartnerRetry mock
func (me *MetricsEngineMock) RecordPartnerRetry(partner string) {
	me.Called(partner)
}

// RecordPartnerPanic mock
func (me *MetricsEngineMock) RecordPartnerPanic(labels PartnerLabels) {
	me.Called(labels)
}

// RecordBidsReturned mock
func (me *MetricsEngineMock) RecordBidsReturned(labels Labels, count int) {
	me.Called(labels, count)
}

// RecordPoolSaturation mock
func (me *MetricsEngineMock) RecordPoolSaturation(partner string) {
	me.Called(partner)
}

// RecordAuctionStarted mock
func (me *MetricsEngineMock) RecordAuctionStarted() {
	me.Called()
}

// RecordAuctionCompleted mock
func (me *MetricsEngineMock) RecordAuctionCompleted() {
	me.Called()
}

// RecordConnectionAccept mock
func (me *MetricsEngineMock) RecordConnectionAccept(success bool) {
	me.Called(success)
}

// RecordConnectionClose mock
func (me *MetricsEngineMock) RecordConnectionClose(success bool) {
	me.Called(success)
}

// RecordHistoryRefresh mock
func (me *MetricsEngineMock) RecordHistoryRefresh(success bool) {
	me.Called(success)
}
