package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/access"
)

func TestAccessServiceEvaluate(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "user-1", "core-balance-001")
	ctx := context.Background()

	decision := env.access.Evaluate(ctx, access.Request{CourseRef: "/courses/balance-gait-001-progressive.html", Session: access.Session{UserID: "user-1"}}, GuardVariantEdge)
	require.True(t, decision.Allowed())
	require.Equal(t, access.ReasonEnrolled, decision.Reason)
	require.Equal(t, "core-balance-001", decision.CourseID)

	decision = env.access.Evaluate(ctx, access.Request{CourseRef: "pt-msk-001", Session: access.Session{UserID: "user-1"}}, GuardVariantPage)
	require.False(t, decision.Allowed())
	require.Equal(t, access.ReasonNotEnrolled, decision.Reason)

	decision = env.access.Evaluate(ctx, access.Request{CourseRef: "pt-msk-001", Session: access.Session{UserID: "admin-1"}}, GuardVariantPage)
	require.True(t, decision.Allowed())
	require.Equal(t, access.ReasonAdmin, decision.Reason)

	decision = env.access.Evaluate(ctx, access.Request{Session: access.Session{UserID: "user-1"}}, GuardVariantPage)
	require.True(t, decision.Allowed())
	require.Equal(t, access.ReasonNoCourse, decision.Reason)
}

func TestAccessServiceFailsClosedWhenStoreIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "user-1", "pt-msk-001")
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	decision := env.access.Evaluate(context.Background(), access.Request{CourseRef: "pt-msk-001.html", Session: access.Session{UserID: "user-1"}}, GuardVariantEdge)
	require.False(t, decision.Allowed())
	require.Equal(t, access.ReasonLookupFailed, decision.Reason)
	require.Error(t, decision.Err)
}
