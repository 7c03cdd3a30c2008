package api

// note that these are *not* the store models; those are distinct and closer
// to the DB format they are in. Rather these are the models that are
// received from and sent to the client.

import (
	"time"

	"github.com/dekarrin/opgparse/internal/grammarfile"
	"github.com/dekarrin/opgparse/internal/store"
)

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
	LastLoginTime  string `json:"last_login,omitempty"`
}

func toUserModel(u store.User) UserModel {
	m := UserModel{
		URI:            PathPrefix + "/users/" + u.ID.String(),
		ID:             u.ID.String(),
		Username:       u.Username,
		Role:           u.Role.String(),
		Created:        u.Created.Format(time.RFC3339),
		Modified:       u.Modified.Format(time.RFC3339),
		LastLogoutTime: u.LastLogoutTime.Format(time.RFC3339),
		LastLoginTime:  u.LastLoginTime.Format(time.RFC3339),
	}
	if u.Email != nil {
		m.Email = u.Email.Address
	}
	return m
}

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Module string `json:"module"`
	} `json:"version"`
}

// PrecEntryModel is one precedence-table entry in a grammar registration
// request or response.
type PrecEntryModel struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Rel   string `json:"rel"`
}

// RuleModel is one production in a grammar registration request or response.
type RuleModel struct {
	LHS string   `json:"lhs"`
	RHS []string `json:"rhs"`
}

// GrammarRequest is the body of a grammar registration.
type GrammarRequest struct {
	Name         string           `json:"name"`
	Terminals    []string         `json:"terminals"`
	NonTerminals []string         `json:"nonterminals"`
	Prec         []PrecEntryModel `json:"prec"`
	Rules        []RuleModel      `json:"rules"`
}

// Def converts the request's grammar definition fields to the shared
// definition form the service layer builds grammars from.
func (gr GrammarRequest) Def() grammarfile.Def {
	def := grammarfile.Def{
		Terminals:    gr.Terminals,
		NonTerminals: gr.NonTerminals,
		Prec:         make([]grammarfile.PrecDef, len(gr.Prec)),
		Rules:        make([]grammarfile.RuleDef, len(gr.Rules)),
	}
	for i, p := range gr.Prec {
		def.Prec[i] = grammarfile.PrecDef{Left: p.Left, Right: p.Right, Rel: p.Rel}
	}
	for i, r := range gr.Rules {
		def.Rules[i] = grammarfile.RuleDef{LHS: r.LHS, RHS: r.RHS}
	}
	return def
}

// GrammarModel is a registered grammar as returned to clients. The matrix
// and rule table are in their flat encoded forms, the same word streams the
// workers themselves consume.
type GrammarModel struct {
	URI          string   `json:"uri"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Terminals    []string `json:"terminals"`
	NonTerminals []string `json:"nonterminals"`
	TermThresh   uint32   `json:"term_thresh"`
	Matrix       []uint32 `json:"matrix"`
	Rules        []uint32 `json:"rules"`
	Created      string   `json:"created,omitempty"`
	Modified     string   `json:"modified,omitempty"`
}

func toGrammarModel(g store.Grammar) GrammarModel {
	return GrammarModel{
		URI:          PathPrefix + "/grammars/" + g.ID.String(),
		ID:           g.ID.String(),
		Name:         g.Name,
		Terminals:    g.Terminals,
		NonTerminals: g.NonTerminals,
		TermThresh:   g.TermThresh(),
		Matrix:       g.Matrix,
		Rules:        g.Rules,
		Created:      g.Created.Format(time.RFC3339),
		Modified:     g.Modified.Format(time.RFC3339),
	}
}

// JobRequest is the body of a job submission. Grammar may be a grammar ID or
// a grammar name. Either Tokens or Input must be set; Input is a convenience
// form for single-character terminal alphabets and is split into one token
// per character.
type JobRequest struct {
	Grammar   string   `json:"grammar"`
	Tokens    []string `json:"tokens,omitempty"`
	Input     string   `json:"input,omitempty"`
	ChunkSize int      `json:"chunk_size"`
}

// StackSymModel is one residual stack entry: the encoded symbol and the
// precedence relation it was pushed under.
type StackSymModel struct {
	Sym  uint32 `json:"sym"`
	Prec uint32 `json:"prec"`
}

// ResidualModel is one worker's outcome within a job.
type ResidualModel struct {
	Stack    []StackSymModel `json:"stack"`
	TopGives int             `json:"top_gives"`
	Error    uint32          `json:"error"`
	Location uint32          `json:"location"`
}

// JobModel is a completed job as returned to clients.
type JobModel struct {
	URI       string          `json:"uri"`
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	GrammarID string          `json:"grammar_id"`
	ChunkSize int             `json:"chunk_size"`
	Input     []uint32        `json:"input"`
	Failed    bool            `json:"failed"`
	Residuals []ResidualModel `json:"residuals"`
	Created   string          `json:"created,omitempty"`
}

func toJobModel(j store.Job) JobModel {
	m := JobModel{
		URI:       PathPrefix + "/jobs/" + j.ID.String(),
		ID:        j.ID.String(),
		UserID:    j.UserID.String(),
		GrammarID: j.GrammarID.String(),
		ChunkSize: j.ChunkSize,
		Input:     make([]uint32, len(j.Input)),
		Failed:    j.Failed(),
		Residuals: make([]ResidualModel, len(j.Results.Residuals)),
		Created:   j.Created.Format(time.RFC3339),
	}
	for i, s := range j.Input {
		m.Input[i] = uint32(s)
	}
	for i, r := range j.Results.Residuals {
		rm := ResidualModel{
			Stack:    make([]StackSymModel, len(r.Stack)),
			TopGives: r.TopGives,
			Error:    r.Err.Error,
			Location: r.Err.Location,
		}
		for k, entry := range r.Stack {
			rm.Stack[k] = StackSymModel{Sym: uint32(entry.Sym), Prec: entry.Prec.Encode()}
		}
		m.Residuals[i] = rm
	}
	return m
}
