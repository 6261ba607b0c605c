package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"
)

const (
	policyPackage = "sitehub.tenant_access"
	allowQuery    = "data." + policyPackage + ".allow"
)

// DefaultPolicy allows platform admins and the owner of the business.
const DefaultPolicy = `package sitehub.tenant_access

default allow := false

allow if {
	input.user.is_admin
}

allow if {
	input.user.id != ""
	input.business.user_id == input.user.id
}
`

// OPAEvaluator evaluates tenant access with an in-process OPA Rego policy.
type OPAEvaluator struct {
	compiler *ast.Compiler
	log      *zap.Logger
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty) and returns an evaluator.
func NewOPAEvaluator(policy string, log *zap.Logger) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	if log == nil {
		log = zap.NewNop()
	}
	compiler, err := ast.CompileModules(map[string]string{"tenant_access.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile tenant access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler, log: log}, nil
}

// HealthCheck evaluates the compiled policy against a minimal input. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, map[string]interface{}{
		"user":     map[string]interface{}{"id": "", "is_admin": false},
		"business": map[string]interface{}{"slug": "", "user_id": ""},
		"action":   "health",
	})
	return err
}

// AllowTenantAccess evaluates the policy for req. Any evaluation failure denies.
func (e *OPAEvaluator) AllowTenantAccess(ctx context.Context, req AccessRequest) (bool, error) {
	allowed, err := e.eval(ctx, buildInput(req))
	if err != nil {
		e.log.Warn("policy: evaluation failed, denying",
			zap.String("tenant", req.Tenant.Slug),
			zap.String("action", req.Action),
			zap.Error(err))
		return false, err
	}
	return allowed, nil
}

func buildInput(req AccessRequest) map[string]interface{} {
	return map[string]interface{}{
		"user": map[string]interface{}{
			"id":       req.Subject.UserID,
			"is_admin": req.Subject.IsAdmin,
		},
		"business": map[string]interface{}{
			"slug":    req.Tenant.Slug,
			"user_id": req.Tenant.OwnerID,
		},
		"action": req.Action,
	}
}

func (e *OPAEvaluator) eval(ctx context.Context, input map[string]interface{}) (bool, error) {
	q := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval tenant access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy allow is %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}
