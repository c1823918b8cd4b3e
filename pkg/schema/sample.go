package schema

import (
	"math"

	"github.com/auditdoc/auditdoc/pkg/severity"
)

// SampleData returns the example dataset used for live template previews.
// Non-array domains map to a record, array domains to a list of records.
// Computed values (finding severity and score, stats, approval state) are
// derived the same way a real render derives them. Each call builds a new
// value, so callers may modify the result freely.
func SampleData() map[string]any {
	findings := sampleFindings()
	approvals := []any{
		map[string]any{"username": "mreviewer", "firstname": "Maria", "lastname": "Reviewer"},
	}
	const requiredApprovals = 2

	return map[string]any{
		"audit": map[string]any{
			"name":       "ACME Web Application Pentest",
			"auditType":  "Web Application",
			"date":       "2024-03-18",
			"date_start": "2024-03-04",
			"date_end":   "2024-03-15",
			"language":   "en",
			"summary":    "<p>The assessment identified five vulnerabilities, one of them critical.</p>",
			"template":   "Default Pentest Report",
			"type":       "default",
			"budget":     12500,
			"customFields": []any{
				map[string]any{"label": "Contract number", "text": "CT-2024-017"},
			},
		},
		"scope": []any{
			map[string]any{
				"name": "https://app.acme.example",
				"hosts": []any{
					map[string]any{
						"hostname": "app.acme.example",
						"ip":       "203.0.113.10",
						"os":       "Linux",
						"services": []any{
							map[string]any{"port": 443, "protocol": "tcp", "name": "https", "product": "nginx", "version": "1.24.0"},
							map[string]any{"port": 22, "protocol": "tcp", "name": "ssh", "product": "OpenSSH", "version": "9.6"},
						},
					},
				},
			},
			map[string]any{
				"name": "api.acme.example",
				"hosts": []any{
					map[string]any{
						"hostname": "api.acme.example",
						"ip":       "203.0.113.11",
						"os":       "Linux",
						"services": []any{
							map[string]any{"port": 8443, "protocol": "tcp", "name": "https-alt", "product": "envoy", "version": "1.29"},
						},
					},
				},
			},
		},
		"client": map[string]any{
			"email":     "jane.doe@acme.example",
			"firstname": "Jane",
			"lastname":  "Doe",
			"title":     "CISO",
			"phone":     "+1 555 0100",
			"cell":      "+1 555 0101",
			"company":   sampleCompany(),
		},
		"company": sampleCompany(),
		"creator": sampleUser("jsmith", "John", "Smith", "user", "Senior Security Consultant"),
		"collaborators": []any{
			sampleUser("jsmith", "John", "Smith", "user", "Senior Security Consultant"),
			sampleUser("alee", "Alex", "Lee", "user", "Security Consultant"),
		},
		"reviewers": []any{
			sampleUser("mreviewer", "Maria", "Reviewer", "report", "Quality Lead"),
			sampleUser("padmin", "Pat", "Admin", "admin", "Practice Manager"),
		},
		"findings": findings,
		"sections": []any{
			map[string]any{"field": "methodology", "name": "Methodology", "text": "<p>Testing followed the OWASP WSTG.</p>"},
			map[string]any{"field": "limitations", "name": "Limitations", "text": "<p>Denial of service testing was out of scope.</p>"},
		},
		"stats": computeStats(findings),
		"auditStatus": map[string]any{
			"state":             "REVIEW",
			"approvals":         approvals,
			"approvalCount":     len(approvals),
			"requiredApprovals": requiredApprovals,
			"isApproved":        len(approvals) >= requiredApprovals,
		},
		"procedure": map[string]any{
			"origin":        "Annual security plan",
			"trigger":       "New release",
			"description":   "<p>Pre-production assessment before go-live.</p>",
			"launchingDate": "2024-02-20",
			"sendingDate":   "2024-03-20",
			"receivedDate":  "2024-03-22",
			"archiveDate":   "2025-03-20",
		},
		"verifications": []any{
			map[string]any{
				"title":       "TLS configuration",
				"description": "<p>Only TLS 1.2+ with strong ciphers.</p>",
				"result":      "pass",
				"date":        "2024-03-12",
				"verifiedBy":  map[string]any{"username": "jsmith", "firstname": "John", "lastname": "Smith"},
				"evidence":    "data:image/png;base64,iVBORw0KGgo=",
			},
			map[string]any{
				"title":       "Password policy",
				"description": "<p>Minimum length and lockout enforced.</p>",
				"result":      "fail",
				"date":        "2024-03-13",
				"verifiedBy":  map[string]any{"username": "alee", "firstname": "Alex", "lastname": "Lee"},
				"evidence":    "data:image/png;base64,iVBORw0KGgo=",
			},
		},
		"document": map[string]any{
			"title":          "Penetration Test Report",
			"version":        "1.0",
			"classification": "confidential",
			"generatedAt":    "2024-03-18T09:30:00Z",
			"author":         "John Smith",
			"language":       "en",
			"revisions": []any{
				map[string]any{"version": "0.9", "date": "2024-03-16", "author": "John Smith", "changes": "Draft for review"},
				map[string]any{"version": "1.0", "date": "2024-03-18", "author": "Maria Reviewer", "changes": "Final"},
			},
		},
	}
}

func sampleCompany() map[string]any {
	return map[string]any{
		"name":      "ACME Corporation",
		"shortName": "ACME",
		"logo":      "data:image/png;base64,iVBORw0KGgo=",
	}
}

func sampleUser(username, first, last, role, job string) map[string]any {
	return map[string]any{
		"username":  username,
		"firstname": first,
		"lastname":  last,
		"email":     username + "@pentest.example",
		"role":      role,
		"jobTitle":  job,
		"phone":     "+1 555 0199",
	}
}

type sampleFinding struct {
	id, title, vulnType, vector, scope string
	complexity, priority               int
	cwe                                string
}

var sampleFindingRows = []sampleFinding{
	{"IDX-001", "SQL Injection in login form", "Injection", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", "https://app.acme.example/login", 1, 4, "CWE-89"},
	{"IDX-002", "Stored Cross-Site Scripting in comments", "Injection", "CVSS:3.1/AV:N/AC:L/PR:L/UI:R/S:C/C:L/I:L/A:N", "https://app.acme.example/comments", 1, 3, "CWE-79"},
	{"IDX-003", "Weak TLS cipher suites", "Cryptography", "CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:L/I:N/A:N", "api.acme.example:8443", 2, 1, "CWE-327"},
	{"IDX-004", "Insecure direct object reference on invoices", "Access Control", "CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:N/A:N", "https://api.acme.example/invoices/{id}", 1, 3, "CWE-639"},
	{"IDX-005", "Privilege escalation through role parameter", "Access Control", "CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:N", "https://api.acme.example/users/me", 3, 4, "CWE-269"},
}

func sampleFindings() []any {
	out := make([]any, 0, len(sampleFindingRows))
	for _, row := range sampleFindingRows {
		sev, score, err := severity.FromVector(row.vector)
		if err != nil {
			// static data: a bad vector is a programming error
			panic(err)
		}
		out = append(out, map[string]any{
			"identifier":            row.id,
			"title":                 row.title,
			"vulnType":              row.vulnType,
			"category":              "Web",
			"description":           "<p>" + row.title + " was identified on " + row.scope + ".</p>",
			"observation":           "<p>Reproduced manually during the assessment.</p>",
			"remediation":           "<p>See the references for remediation guidance.</p>",
			"remediationComplexity": row.complexity,
			"priority":              row.priority,
			"references":            []any{"https://cwe.mitre.org/data/definitions/" + row.cwe[len("CWE-"):] + ".html"},
			"cwes":                  []any{row.cwe},
			"cvssv3":                row.vector,
			"cvssScore":             score,
			"severity":              sev.Label(),
			"poc":                   "<pre>See attached request/response.</pre>",
			"scope":                 row.scope,
			"status":                0,
			"retestStatus":          "unknown",
			"retestDescription":     "",
			"customFields":          []any{},
		})
	}
	return out
}

// computeStats derives the stats domain from a findings list.
func computeStats(findings []any) map[string]any {
	counts := map[severity.Severity]int{}
	remediation := map[string]any{"easy": 0, "medium": 0, "complex": 0}
	var total float64
	for _, f := range findings {
		rec, ok := f.(map[string]any)
		if !ok {
			continue
		}
		score, _ := rec["cvssScore"].(float64)
		total += score
		counts[severity.FromScore(score)]++
		switch rec["remediationComplexity"] {
		case 1:
			remediation["easy"] = remediation["easy"].(int) + 1
		case 2:
			remediation["medium"] = remediation["medium"].(int) + 1
		case 3:
			remediation["complex"] = remediation["complex"].(int) + 1
		}
	}

	avg := 0.0
	if len(findings) > 0 {
		avg = math.Round(total/float64(len(findings))*10) / 10
	}
	return map[string]any{
		"total":        len(findings),
		"critical":     counts[severity.Critical],
		"high":         counts[severity.High],
		"medium":       counts[severity.Medium],
		"low":          counts[severity.Low],
		"none":         counts[severity.None],
		"averageScore": avg,
		"remediation":  remediation,
	}
}
