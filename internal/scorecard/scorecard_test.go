package scorecard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"attestor/internal/rules"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func healthyRules() *rules.Result {
	return &rules.Result{
		Rules: []rules.Rule{
			{ID: "GDPR-001", Priority: "critical", Category: "privacy", Framework: FrameworkGDPR},
			{ID: "GDPR-002", Priority: "high", Category: "privacy", Framework: FrameworkGDPR},
			{ID: "DORA-001", Priority: "critical", Category: "resilience", Framework: FrameworkDORA},
			{ID: "MICA-001", Priority: "critical", Category: "market", Framework: FrameworkMiCA},
			{ID: "AMLD6-001", Priority: "critical", Category: "aml", Framework: FrameworkAMLD6},
		},
	}
}

func TestBuild_Rollups(t *testing.T) {
	sc := Build(healthyRules(), fixedNow)

	assert.Equal(t, GradePass, sc.Grade)
	assert.Equal(t, 5, sc.TotalRules)
	assert.Equal(t, "2026-03-14T09:26:53Z", sc.GeneratedAt)
	require.Len(t, sc.Frameworks, 4)

	// Frameworks come out sorted by name.
	assert.Equal(t, FrameworkAMLD6, sc.Frameworks[0].Framework)
	assert.Equal(t, FrameworkDORA, sc.Frameworks[1].Framework)

	gdpr := sc.Frameworks[2]
	assert.Equal(t, FrameworkGDPR, gdpr.Framework)
	assert.Equal(t, 2, gdpr.TotalRules)
	assert.Equal(t, 1, gdpr.Critical)
	if diff := cmp.Diff(map[string]int{"critical": 1, "high": 1}, gdpr.ByPriority); diff != "" {
		t.Errorf("by_priority mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_EmptyRuleSetFails(t *testing.T) {
	sc := Build(&rules.Result{}, fixedNow)
	assert.Equal(t, GradeFail, sc.Grade)
}

func TestBuild_PartialLoadWarns(t *testing.T) {
	res := healthyRules()
	res.Warnings = []string{"contracts/aml.yaml: no such file"}
	sc := Build(res, fixedNow)
	assert.Equal(t, GradeWarn, sc.Grade)
	assert.Equal(t, res.Warnings, sc.Warnings)
}

func TestBuild_UnknownPriorityFails(t *testing.T) {
	res := healthyRules()
	res.Rules = append(res.Rules, rules.Rule{ID: "X-1", Priority: "urgent", Framework: FrameworkGDPR})
	sc := Build(res, fixedNow)
	assert.Equal(t, GradeFail, sc.Grade)
}

func TestBuild_FrameworkWithoutCriticalWarns(t *testing.T) {
	res := &rules.Result{Rules: []rules.Rule{
		{ID: "MICA-001", Priority: "medium", Category: "market", Framework: FrameworkMiCA},
	}}
	sc := Build(res, fixedNow)
	assert.Equal(t, GradeWarn, sc.Grade)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts", "scorecard.yaml")
	sc := Build(healthyRules(), fixedNow)
	require.NoError(t, sc.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Scorecard
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, sc.Grade, loaded.Grade)
	assert.Equal(t, sc.TotalRules, loaded.TotalRules)
	assert.Len(t, loaded.Checks, len(sc.Checks))
}
