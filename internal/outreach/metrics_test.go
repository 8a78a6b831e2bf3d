package outreach_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/outreach-mail/internal/obs"
	"github.com/noah-isme/outreach-mail/internal/outreach"
)

func TestDispatchUpdatesDomainMetrics(t *testing.T) {
	obs.MustRegisterDomainMetrics("outreach_test", prometheus.NewRegistry())

	sent := obs.DispatchRecipientsTotal.WithLabelValues(string(outreach.OutcomeSent))
	missing := obs.DispatchRecipientsTotal.WithLabelValues(string(outreach.OutcomeNotRegistered))
	failed := obs.DispatchRecipientsTotal.WithLabelValues(string(outreach.OutcomeTransportFailed))
	beforeSent, beforeMissing, beforeFailed := testutil.ToFloat64(sent), testutil.ToFloat64(missing), testutil.ToFloat64(failed)
	beforeBatches := testutil.ToFloat64(obs.DispatchBatchesTotal)

	engine := newEngine(t, seededDirectory(t, 2), failFor("org2@email.com"))
	engine.Dispatch(context.Background(), outreach.BatchRequest{
		SenderID:     "admin@temelio.com",
		RecipientIDs: []string{"org1@email.com", "org2@email.com", "ghost@email.com"},
	})

	require.Equal(t, beforeSent+1, testutil.ToFloat64(sent))
	require.Equal(t, beforeMissing+1, testutil.ToFloat64(missing))
	require.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
	require.Equal(t, beforeBatches+1, testutil.ToFloat64(obs.DispatchBatchesTotal))
}
