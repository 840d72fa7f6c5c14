package prometheusmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Assurean/rocket-quote-fzia64-sub003/clickrtb"
	"github.com/Assurean/rocket-quote-fzia64-sub003/metrics"
)

// preloadLabelValues populates known label combinations so that the first
// scrape after startup already exposes every series at zero.
func preloadLabelValues(m *Metrics, partnerIDs []string) {
	var (
		outcomeValues  = partnerOutcomesAsString()
		statusValues   = requestStatusesAsString()
		verticalValues = verticalsAsString()
		boolValues     = []string{"true", "false"}
	)

	preloadLabelValuesForCounter(m.connectionsError, map[string][]string{
		connectionErrorLabel: {connectionAcceptError, connectionCloseError},
	})

	preloadLabelValuesForCounter(m.requests, map[string][]string{
		verticalLabel:      verticalValues,
		requestStatusLabel: statusValues,
	})

	preloadLabelValuesForCounter(m.bidsReturned, map[string][]string{
		verticalLabel: verticalValues,
	})

	preloadLabelValuesForCounter(m.historyRefreshes, map[string][]string{
		successLabel: boolValues,
	})

	preloadLabelValuesForCounter(m.partnerRequests, map[string][]string{
		partnerLabel:  partnerIDs,
		verticalLabel: verticalValues,
		outcomeLabel:  outcomeValues,
	})

	preloadLabelValuesForCounter(m.partnerRetries, map[string][]string{
		partnerLabel: partnerIDs,
	})

	preloadLabelValuesForCounter(m.partnerPanics, map[string][]string{
		partnerLabel: partnerIDs,
	})

	preloadLabelValuesForCounter(m.poolSaturation, map[string][]string{
		partnerLabel: partnerIDs,
	})
}

func preloadLabelValuesForCounter(counter *prometheus.CounterVec, labelsWithValues map[string][]string) {
	registerLabelPermutations(labelsWithValues, func(labels prometheus.Labels) {
		counter.With(labels)
	})
}

func registerLabelPermutations(labelsWithValues map[string][]string, register func(prometheus.Labels)) {
	if len(labelsWithValues) == 0 {
		return
	}

	keys := make([]string, 0, len(labelsWithValues))
	values := make([][]string, 0, len(labelsWithValues))
	for k, v := range labelsWithValues {
		keys = append(keys, k)
		values = append(values, v)
	}

	labels := prometheus.Labels{}
	var permute func(int)
	permute = func(depth int) {
		if depth == len(keys) {
			clone := prometheus.Labels{}
			for k, v := range labels {
				clone[k] = v
			}
			register(clone)
			return
		}
		for _, v := range values[depth] {
			labels[keys[depth]] = v
			permute(depth + 1)
		}
	}
	permute(0)
}

func partnerOutcomesAsString() []string {
	outcomes := metrics.PartnerOutcomes()
	outcomesAsString := make([]string, len(outcomes))
	for i, v := range outcomes {
		outcomesAsString[i] = string(v)
	}
	return outcomesAsString
}

func requestStatusesAsString() []string {
	statuses := metrics.RequestStatuses()
	statusesAsString := make([]string, len(statuses))
	for i, v := range statuses {
		statusesAsString[i] = string(v)
	}
	return statusesAsString
}

func verticalsAsString() []string {
	verticals := clickrtb.Verticals()
	verticalsAsString := make([]string, len(verticals))
	for i, v := range verticals {
		verticalsAsString[i] = string(v)
	}
	return verticalsAsString
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}
