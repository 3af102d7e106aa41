package sqlinline

import (
	"regexp"
	"strings"
	"testing"
)

var allQueries = map[string]string{
	"QCreateUsersTable":               QCreateUsersTable,
	"QCreateLoginAuditTable":          QCreateLoginAuditTable,
	"QCreateConfigsPrimaryTable":      QCreateConfigsPrimaryTable,
	"QCreateConfigsUserTable":         QCreateConfigsUserTable,
	"QCreateUserConfigsView":          QCreateUserConfigsView,
	"QCreateUserPresetsTable":         QCreateUserPresetsTable,
	"QCreateGenerationJobsTable":      QCreateGenerationJobsTable,
	"QCreateGenerationJobsIndexes":    QCreateGenerationJobsIndexes,
	"QCreateProviderCredentialsTable": QCreateProviderCredentialsTable,
	"QCreateWebhookAgentsTable":       QCreateWebhookAgentsTable,
	"QInsertUser":                     QInsertUser,
	"QSelectUserByUsername":           QSelectUserByUsername,
	"QSelectUserByID":                 QSelectUserByID,
	"QRecordLoginFailure":             QRecordLoginFailure,
	"QRecordLoginSuccess":             QRecordLoginSuccess,
	"QActivateUser":                   QActivateUser,
	"QSelectVerificationToken":        QSelectVerificationToken,
	"QUpsertGoogleUser":               QUpsertGoogleUser,
	"QInsertLoginAudit":               QInsertLoginAudit,
	"QSetUserRole":                    QSetUserRole,
	"QUnlockUser":                     QUnlockUser,
	"QSelectUserConfigsByCategory":    QSelectUserConfigsByCategory,
	"QSelectConfigPrimaryByID":        QSelectConfigPrimaryByID,
	"QSelectConfigsAdmin":             QSelectConfigsAdmin,
	"QInsertConfigPrimary":            QInsertConfigPrimary,
	"QUpdateConfigPrimary":            QUpdateConfigPrimary,
	"QDeleteConfigPrimary":            QDeleteConfigPrimary,
	"QInsertConfigSelection":          QInsertConfigSelection,
	"QDeleteConfigSelection":          QDeleteConfigSelection,
	"QInsertPreset":                   QInsertPreset,
	"QSelectPresetsByUser":            QSelectPresetsByUser,
	"QSelectPresetByID":               QSelectPresetByID,
	"QUpdatePreset":                   QUpdatePreset,
	"QDeletePreset":                   QDeletePreset,
	"QClearDefaultPreset":             QClearDefaultPreset,
	"QApplyPreset":                    QApplyPreset,
	"QInsertJob":                      QInsertJob,
	"QSelectJobForUser":               QSelectJobForUser,
	"QSelectJobByJobID":               QSelectJobByJobID,
	"QCancelJob":                      QCancelJob,
	"QInsertRetryJob":                 QInsertRetryJob,
	"QQueuePosition":                  QQueuePosition,
	"QListJobsBase":                   QListJobsBase,
	"QCountJobsBase":                  QCountJobsBase,
	"QWorkerClaimJob":                 QWorkerClaimJob,
	"QWorkerCompleteJob":              QWorkerCompleteJob,
	"QWorkerFailJob":                  QWorkerFailJob,
	"QWorkerRequeueJob":               QWorkerRequeueJob,
	"QUserJobStats":                   QUserJobStats,
	"QQueueMetrics":                   QQueueMetrics,
	"QHourlyJobStats":                 QHourlyJobStats,
	"QExpireQueuedJobs":               QExpireQueuedJobs,
	"QReapStuckJobs":                  QReapStuckJobs,
	"QSelectRequeueableJobs":          QSelectRequeueableJobs,
	"QPurgeOldJobs":                   QPurgeOldJobs,
	"QSelectProviderCredential":       QSelectProviderCredential,
	"QUpsertProviderCredential":       QUpsertProviderCredential,
	"QSelectAgentForContentType":      QSelectAgentForContentType,
	"QSelectAgents":                   QSelectAgents,
	"QUpsertAgent":                    QUpsertAgent,
	"QDeleteAgent":                    QDeleteAgent,
	"QSeedUser":                       QSeedUser,
	"QSeedConfigPrimary":              QSeedConfigPrimary,
}

var markerRe = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestQueryMarkersWellFormed(t *testing.T) {
	for name, q := range allQueries {
		line := q
		if i := strings.IndexByte(q, '\n'); i >= 0 {
			line = q[:i]
		}
		if !markerRe.MatchString(line) {
			t.Fatalf("%s: first line %q is not a valid marker", name, line)
		}
	}
}

func TestQueryMarkersUnique(t *testing.T) {
	seen := map[string]string{}
	for name, q := range allQueries {
		line := q
		if i := strings.IndexByte(q, '\n'); i >= 0 {
			line = q[:i]
		}
		if other, ok := seen[line]; ok {
			t.Fatalf("marker collision between %s and %s: %q", name, other, line)
		}
		seen[line] = name
	}
}
