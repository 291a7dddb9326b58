// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package grant

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-grant/action"
	"github.com/iotexproject/iotex-grant/action/protocol"
	"github.com/iotexproject/iotex-grant/pkg/log"
	"github.com/iotexproject/iotex-grant/pkg/util/byteutil"
	"github.com/iotexproject/iotex-grant/state"
)

const _roundKeyLen = 8

type (
	// ProjectID identifies a project by its round and owner
	ProjectID struct {
		RoundID uint64
		Owner   address.Address
	}

	// Project is a registrant of a round
	Project struct {
		ProjectID
		Name        string
		Description string
		URL         string
		Image       string
		CreatedAt   uint64
		// TotalVotes is the raw vote units received from all voters
		TotalVotes  *big.Int
		SupportArea *big.Int
		// Grants is the fee-netted cost of the votes received
		Grants    *big.Int
		Withdrawn *big.Int
	}

	projectRecord struct {
		RoundID     uint64
		Owner       []byte
		Name        string
		Description string
		URL         string
		Image       string
		CreatedAt   uint64
		TotalVotes  *big.Int
		SupportArea *big.Int
		Grants      *big.Int
		Withdrawn   *big.Int
	}

	// indexEntry is the value of a secondary index key, the key carries all the information
	indexEntry struct{}
)

// String returns the id in the form of <round>:<owner>
func (id ProjectID) String() string {
	owner := ""
	if id.Owner != nil {
		owner = id.Owner.String()
	}
	return fmt.Sprintf("%d:%s", id.RoundID, owner)
}

func (id ProjectID) key() []byte {
	return append(roundKey(id.RoundID), id.Owner.Bytes()...)
}

// ParseProjectID parses the id in the form of <round>:<owner>
func ParseProjectID(s string) (ProjectID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return ProjectID{}, errors.Wrapf(ErrInvalidArgument, "malformed project id %s", s)
	}
	roundID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ProjectID{}, errors.Wrapf(ErrInvalidArgument, "malformed round id %s", parts[0])
	}
	owner, err := address.FromString(parts[1])
	if err != nil {
		return ProjectID{}, errors.Wrapf(ErrInvalidArgument, "malformed owner %s", parts[1])
	}
	return ProjectID{RoundID: roundID, Owner: owner}, nil
}

// Serialize serializes project state into bytes
func (pj *Project) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&projectRecord{
		RoundID:     pj.RoundID,
		Owner:       pj.Owner.Bytes(),
		Name:        pj.Name,
		Description: pj.Description,
		URL:         pj.URL,
		Image:       pj.Image,
		CreatedAt:   pj.CreatedAt,
		TotalVotes:  pj.TotalVotes,
		SupportArea: pj.SupportArea,
		Grants:      pj.Grants,
		Withdrawn:   pj.Withdrawn,
	})
}

// Deserialize deserializes bytes into project state
func (pj *Project) Deserialize(data []byte) error {
	r := projectRecord{}
	if err := rlp.DecodeBytes(data, &r); err != nil {
		return err
	}
	owner, err := address.FromBytes(r.Owner)
	if err != nil {
		return errors.Wrap(err, "invalid project owner")
	}
	*pj = Project{
		ProjectID:   ProjectID{RoundID: r.RoundID, Owner: owner},
		Name:        r.Name,
		Description: r.Description,
		URL:         r.URL,
		Image:       r.Image,
		CreatedAt:   r.CreatedAt,
		TotalVotes:  r.TotalVotes,
		SupportArea: r.SupportArea,
		Grants:      r.Grants,
		Withdrawn:   r.Withdrawn,
	}
	return nil
}

func (indexEntry) Serialize() ([]byte, error) { return []byte{1}, nil }

func (*indexEntry) Deserialize([]byte) error { return nil }

// CreateProject registers the caller's project in the current round. The round's time window is not
// checked, only votes require an active round.
func (p *Protocol) CreateProject(ctx context.Context, sm protocol.StateManager, act *action.CreateProject) (*Project, error) {
	c, err := p.contract(sm)
	if err != nil {
		return nil, err
	}
	if _, err := p.round(sm, c.CurrentRoundID); err != nil {
		return nil, err
	}
	id := ProjectID{RoundID: c.CurrentRoundID, Owner: protocol.MustGetActionCtx(ctx).Caller}
	switch _, err := p.project(sm, id); errors.Cause(err) {
	case nil:
		return nil, errors.Wrapf(ErrStateConflict, "project %s already exists", id)
	case ErrNotFound:
	default:
		return nil, err
	}
	project := &Project{
		ProjectID:   id,
		Name:        act.Title,
		Description: act.Description,
		URL:         act.URL,
		Image:       act.Image,
		CreatedAt:   protocol.MustGetBlockCtx(ctx).Now(),
		TotalVotes:  big.NewInt(0),
		SupportArea: big.NewInt(0),
		Grants:      big.NewInt(0),
		Withdrawn:   big.NewInt(0),
	}
	if err := p.putState(sm, _projectNS, id.key(), project); err != nil {
		return nil, err
	}
	// indices are written in the same working set as the project
	if err := p.putState(sm, _roundProjectNS, id.key(), indexEntry{}); err != nil {
		return nil, err
	}
	if err := p.putState(sm, _ownerRoundNS, append(id.Owner.Bytes(), roundKey(id.RoundID)...), indexEntry{}); err != nil {
		return nil, err
	}
	log.L().Debug("Create grant project.", zap.Stringer("project", id), zap.String("name", act.Title))
	return project, nil
}

// ComputeShare returns the withdrawable amount and the total entitlement of the project. Both are zero
// while the project's round is the current active round.
func (p *Protocol) ComputeShare(ctx context.Context, sr protocol.StateReader, id ProjectID) (*big.Int, *big.Int, error) {
	project, err := p.project(sr, id)
	if err != nil {
		return nil, nil, err
	}
	round, err := p.round(sr, id.RoundID)
	if err != nil {
		return nil, nil, err
	}
	c, err := p.contract(sr)
	if err != nil {
		return nil, nil, err
	}
	return computeShare(c, round, project, protocol.MustGetBlockCtx(ctx).Now())
}

func computeShare(c *contract, round *Round, project *Project, now uint64) (*big.Int, *big.Int, error) {
	if round.ID == c.CurrentRoundID && round.IsActive(now) {
		return big.NewInt(0), big.NewInt(0), nil
	}
	share, err := poolShare(project.SupportArea, round.SupportPool, round.SupportArea)
	if err != nil {
		return nil, nil, err
	}
	total, err := addAmount(project.Grants, share)
	if err != nil {
		return nil, nil, err
	}
	withdrawable := new(big.Int).Sub(total, project.Withdrawn)
	if withdrawable.Sign() < 0 {
		withdrawable.SetInt64(0)
	}
	return withdrawable, total, nil
}

// Withdraw pays the amount out of the project's entitlement to the project owner
func (p *Protocol) Withdraw(ctx context.Context, sm protocol.StateManager, id ProjectID, amount *big.Int) (*Project, []*action.TransactionLog, error) {
	project, err := p.project(sm, id)
	if err != nil {
		return nil, nil, err
	}
	round, err := p.round(sm, id.RoundID)
	if err != nil {
		return nil, nil, err
	}
	c, err := p.contract(sm)
	if err != nil {
		return nil, nil, err
	}
	withdrawable, _, err := computeShare(c, round, project, protocol.MustGetBlockCtx(ctx).Now())
	if err != nil {
		return nil, nil, err
	}
	if amount.Cmp(withdrawable) > 0 {
		return nil, nil, errors.Wrapf(ErrInsufficientFunds, "withdraw %s exceeds withdrawable %s", amount, withdrawable)
	}
	if project.Withdrawn, err = addAmount(project.Withdrawn, amount); err != nil {
		return nil, nil, err
	}
	if err := p.putState(sm, _projectNS, id.key(), project); err != nil {
		return nil, nil, err
	}
	log.L().Info("Withdraw grant.", zap.Stringer("project", id), zap.String("amount", amount.String()))
	return project, []*action.TransactionLog{{
		Type:      action.GrantWithdrawLog,
		Amount:    new(big.Int).Set(amount),
		Recipient: id.Owner.String(),
	}}, nil
}

// Project returns the project of the id
func (p *Protocol) Project(_ context.Context, sr protocol.StateReader, id ProjectID) (*Project, error) {
	return p.project(sr, id)
}

// Projects returns a page of all projects ordered by round and owner
func (p *Protocol) Projects(_ context.Context, sr protocol.StateReader, limit, offset uint64) ([]*Project, error) {
	iter, err := p.states(sr, _projectNS, nil)
	if err != nil {
		return nil, err
	}
	n := iter.Page(limit, offset)
	projects := make([]*Project, 0, n)
	for i := 0; i < n; i++ {
		project := &Project{}
		if _, err := iter.Next(project); err != nil {
			return nil, errors.Wrap(err, "failed to read project")
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// ProjectsInRound returns a page of the projects registered in the round, ordered by owner
func (p *Protocol) ProjectsInRound(_ context.Context, sr protocol.StateReader, roundID uint64, limit, offset uint64) ([]*Project, error) {
	iter, err := p.states(sr, _roundProjectNS, roundKey(roundID))
	if err != nil {
		return nil, err
	}
	return p.indexedProjects(sr, iter, limit, offset, func(key []byte) (ProjectID, error) {
		owner, err := address.FromBytes(key[_roundKeyLen:])
		if err != nil {
			return ProjectID{}, err
		}
		return ProjectID{RoundID: roundID, Owner: owner}, nil
	})
}

// ProjectsForOwner returns a page of the owner's projects in ascending round order
func (p *Protocol) ProjectsForOwner(_ context.Context, sr protocol.StateReader, owner address.Address, limit, offset uint64) ([]*Project, error) {
	prefix := owner.Bytes()
	iter, err := p.states(sr, _ownerRoundNS, prefix)
	if err != nil {
		return nil, err
	}
	return p.indexedProjects(sr, iter, limit, offset, func(key []byte) (ProjectID, error) {
		if len(key) != len(prefix)+_roundKeyLen {
			return ProjectID{}, errors.Errorf("malformed owner index key %x", key)
		}
		return ProjectID{RoundID: byteutil.BytesToUint64BigEndian(key[len(prefix):]), Owner: owner}, nil
	})
}

func (p *Protocol) indexedProjects(
	sr protocol.StateReader,
	iter state.Iterator,
	limit, offset uint64,
	parse func([]byte) (ProjectID, error),
) ([]*Project, error) {
	n := iter.Page(limit, offset)
	projects := make([]*Project, 0, n)
	for i := 0; i < n; i++ {
		key, err := iter.Next(&indexEntry{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read project index")
		}
		id, err := parse(key)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse project index")
		}
		project, err := p.project(sr, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (p *Protocol) project(sr protocol.StateReader, id ProjectID) (*Project, error) {
	project := Project{}
	err := p.state(sr, _projectNS, id.key(), &project)
	switch errors.Cause(err) {
	case nil:
		return &project, nil
	case state.ErrStateNotExist:
		return nil, errors.Wrapf(ErrNotFound, "project %s", id)
	default:
		return nil, err
	}
}
