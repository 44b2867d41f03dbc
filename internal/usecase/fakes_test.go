package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

const (
	creationCode = "0x6001600c60003960016000f300"
	runtimeCode  = "0x00"
)

const sentinelABI = `[{"type":"constructor","inputs":[],"stateMutability":"nonpayable"}]`

const strategyABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[
    {"name":"want","type":"address"},
    {"name":"poolId","type":"uint256"},
    {"name":"sentinel","type":"address"}]},
  {"type":"function","name":"setRoute","stateMutability":"nonpayable","inputs":[{"name":"route","type":"address[]"}],"outputs":[]},
  {"type":"function","name":"setVault","stateMutability":"nonpayable","inputs":[{"name":"vault","type":"address"}],"outputs":[]}
]`

const vaultABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[
    {"name":"strategy","type":"address"},
    {"name":"name","type":"string"},
    {"name":"symbol","type":"string"}]},
  {"type":"function","name":"setStrategyVault","stateMutability":"nonpayable","inputs":[{"name":"strategy","type":"address"}],"outputs":[]}
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeArtifacts serves artifacts from a map
type fakeArtifacts map[string]*models.Artifact

func (f fakeArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	a, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
	}
	return a, nil
}

func artifact(name, abiJSON string) *models.Artifact {
	return &models.Artifact{
		ContractName:     name,
		SourceName:       "contracts/" + name + ".sol",
		ABI:              json.RawMessage(abiJSON),
		Bytecode:         models.BytecodeObject{Object: creationCode},
		DeployedBytecode: models.BytecodeObject{Object: runtimeCode},
	}
}

func exampleArtifacts() fakeArtifacts {
	return fakeArtifacts{
		"Sentinel": artifact("Sentinel", sentinelABI),
		"Strategy": artifact("Strategy", strategyABI),
		"Vault":    artifact("Vault", vaultABI),
	}
}

// examplePlan is the three-contract plan with two post-deploy actions
func examplePlan() *models.Plan {
	return &models.Plan{
		Name: "example",
		Steps: []models.DeploymentStep{
			{Name: "Sentinel", Contract: "Sentinel"},
			{Name: "Strategy", Contract: "Strategy", Args: []models.Arg{
				models.Literal("0xAA00000000000000000000000000000000000000"),
				models.Literal("0"),
				models.Ref("Sentinel"),
			}},
			{Name: "Vault", Contract: "Vault", Args: []models.Arg{
				models.Ref("Strategy"),
				models.Literal("X"),
				models.Literal("X"),
			}},
		},
		Actions: []models.PostDeployAction{
			{Name: "setStrategyVault", Target: "Vault", Method: "setStrategyVault", Args: []models.Arg{models.Ref("Strategy")}},
			{Name: "setRoute", Target: "Strategy", Method: "setRoute", Args: []models.Arg{models.List(
				models.Literal("0x1000000000000000000000000000000000000001"),
				models.Literal("0x2000000000000000000000000000000000000002"),
				models.Literal("0x3000000000000000000000000000000000000003"),
			)}},
		},
	}
}

func localProfile() *config.NetworkProfile {
	return &config.NetworkProfile{
		Name:           "local",
		RPCURL:         "http://127.0.0.1:8545",
		Ephemeral:      true,
		Gas:            config.GasPolicy{Mode: config.GasModeAuto, Multiplier: 1},
		ConfirmTimeout: time.Second,
		PollInterval:   10 * time.Millisecond,
	}
}

// fakeProfiles resolves from a fixed map
type fakeProfiles struct {
	profiles map[string]*config.NetworkProfile
	errs     map[string]error
	resolved []string
}

func (f *fakeProfiles) Resolve(ctx context.Context, selector string) (*config.NetworkProfile, error) {
	f.resolved = append(f.resolved, selector)
	if err, ok := f.errs[selector]; ok {
		return nil, err
	}
	p, ok := f.profiles[selector]
	if !ok {
		return nil, &domain.ProfileNotFoundError{Selector: selector}
	}
	return p, nil
}

func (f *fakeProfiles) Profiles(ctx context.Context) []string {
	var names []string
	for name := range f.profiles {
		names = append(names, name)
	}
	for name := range f.errs {
		names = append(names, name)
	}
	return names
}

// fakePlans returns a fixed plan
type fakePlans struct {
	plan  *models.Plan
	err   error
	loads int
}

func (f *fakePlans) Load(ctx context.Context, path string) (*models.Plan, error) {
	f.loads++
	return f.plan, f.err
}

// fakeSession records every submission and confirms them in order
type fakeSession struct {
	mu          sync.Mutex
	chainID     uint64
	submissions []string
	// submitCtxErrs holds ctx.Err() as seen by each submission
	submitCtxErrs []error
	nextAddr      int64
	// submitErr and waitErr are keyed by 1-based submission number
	submitErr map[int]error
	waitErr   map[int]error
	blockWait map[int]bool
	onConfirm func(n int)
	codeAt    map[common.Address]bool
	closed    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{chainID: 1337, nextAddr: 0x100}
}

func (s *fakeSession) SubmitCreation(ctx context.Context, code []byte) (*usecase.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, fmt.Sprintf("create:%d", len(code)))
	s.submitCtxErrs = append(s.submitCtxErrs, ctx.Err())
	n := len(s.submissions)
	if err := s.submitErr[n]; err != nil {
		return nil, err
	}
	s.nextAddr++
	return &usecase.PendingTransaction{
		Hash:            common.BigToHash(big.NewInt(int64(n))),
		ContractAddress: common.BigToAddress(big.NewInt(s.nextAddr)),
	}, nil
}

func (s *fakeSession) SubmitCall(ctx context.Context, to common.Address, data []byte) (*usecase.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, fmt.Sprintf("call:%s:%x", to.Hex(), data[:4]))
	s.submitCtxErrs = append(s.submitCtxErrs, ctx.Err())
	n := len(s.submissions)
	if err := s.submitErr[n]; err != nil {
		return nil, err
	}
	return &usecase.PendingTransaction{Hash: common.BigToHash(big.NewInt(int64(n)))}, nil
}

func (s *fakeSession) WaitConfirmed(ctx context.Context, tx *usecase.PendingTransaction) (*models.Receipt, error) {
	n := int(tx.Hash.Big().Int64())
	if s.blockWait[n] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.waitErr[n]; err != nil {
		return nil, err
	}
	if s.onConfirm != nil {
		s.onConfirm(n)
	}
	return &models.Receipt{
		TxHash:          tx.Hash,
		BlockNumber:     uint64(n),
		ContractAddress: tx.ContractAddress,
	}, nil
}

func (s *fakeSession) ChainID() uint64          { return s.chainID }
func (s *fakeSession) Deployer() common.Address { return common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266") }
func (s *fakeSession) Close()                   { s.closed = true }

func (s *fakeSession) HasCode(ctx context.Context, address common.Address) (bool, error) {
	return s.codeAt[address], nil
}

func (s *fakeSession) creations() int {
	count := 0
	for _, sub := range s.submissions {
		if len(sub) > 6 && sub[:6] == "create" {
			count++
		}
	}
	return count
}

// fakeConnector hands out a single session
type fakeConnector struct {
	session  *fakeSession
	err      error
	connects int
}

func (c *fakeConnector) Connect(ctx context.Context, profile *config.NetworkProfile) (usecase.ChainSession, error) {
	c.connects++
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

// memRunStates keeps run state in memory
type memRunStates struct {
	states map[string]*models.RunState
	saves  int
}

func newMemRunStates() *memRunStates {
	return &memRunStates{states: make(map[string]*models.RunState)}
}

func (m *memRunStates) Save(ctx context.Context, state *models.RunState) error {
	m.saves++
	data, _ := json.Marshal(state)
	var copied models.RunState
	_ = json.Unmarshal(data, &copied)
	m.states[state.Plan+"/"+state.Network] = &copied
	return nil
}

func (m *memRunStates) Load(ctx context.Context, plan, network string) (*models.RunState, error) {
	s, ok := m.states[plan+"/"+network]
	if !ok {
		return nil, fmt.Errorf("run state: %w", domain.ErrNotFound)
	}
	return s, nil
}

// MockManifestStore is a mock implementation of ManifestStore
type MockManifestStore struct {
	mock.Mock
}

func (m *MockManifestStore) Save(ctx context.Context, manifest *models.Manifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockManifestStore) Load(ctx context.Context, network string) (*models.Manifest, error) {
	args := m.Called(ctx, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manifest), args.Error(1)
}

// fakeConfirmer answers the operator prompt
type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) ConfirmDeployment(ctx context.Context, profile *config.NetworkProfile, plan *models.Plan) (bool, error) {
	f.asked++
	return f.answer, nil
}

// fakeSelector picks a fixed profile or fails
type fakeSelector struct {
	choice string
	err    error
}

func (f *fakeSelector) SelectProfile(ctx context.Context, profiles []string) (string, error) {
	return f.choice, f.err
}

// recordingProgress keeps every progress event
type recordingProgress struct {
	events []usecase.ProgressEvent
}

func (r *recordingProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.events = append(r.events, event)
}
func (r *recordingProgress) Info(string)  {}
func (r *recordingProgress) Error(string) {}

func (r *recordingProgress) stages() []string {
	stages := make([]string, len(r.events))
	for i, e := range r.events {
		stages[i] = e.Stage
	}
	return stages
}
