package runinspect_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/imgconv/internal/app/runinspect"
	"github.com/slok/imgconv/internal/model"
	"github.com/slok/imgconv/internal/storage/storagemock"
)

func TestService_Run(t *testing.T) {
	runs := []model.RunResult{
		{ID: "01JB00000000000000000000AA", State: model.TerminalStateCompleted},
		{ID: "01JA00000000000000000000BB", State: model.TerminalStateStopped},
		{ID: "01JA00000000000000000000CC", State: model.TerminalStateCompleted},
	}
	notFound := fmt.Errorf("whatever: %w", model.ErrNotFound)

	tests := map[string]struct {
		mock     func(m *storagemock.MockRunRepository)
		ref      string
		expID    string
		expErr   bool
		// expErrIs is the sentinel the error must wrap, if any.
		expErrIs error
	}{
		"Exact ID should be returned.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("GetRun", mock.Anything, "01JA00000000000000000000BB").Once().Return(&runs[1], nil)
			},
			ref:   "01JA00000000000000000000BB",
			expID: "01JA00000000000000000000BB",
		},
		"Latest should return the newest run.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("ListRuns", mock.Anything).Once().Return(runs, nil)
			},
			ref:   runinspect.LatestRun,
			expID: "01JB00000000000000000000AA",
		},
		"Latest without history should be not found.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("ListRuns", mock.Anything).Once().Return([]model.RunResult{}, nil)
			},
			ref:      runinspect.LatestRun,
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},
		"Unique lowercase prefix should be resolved.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("GetRun", mock.Anything, "01jb").Once().Return(nil, notFound)
				m.On("ListRuns", mock.Anything).Once().Return(runs, nil)
			},
			ref:   "01jb",
			expID: "01JB00000000000000000000AA",
		},
		"Ambiguous prefix should fail.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("GetRun", mock.Anything, "01JA").Once().Return(nil, notFound)
				m.On("ListRuns", mock.Anything).Once().Return(runs, nil)
			},
			ref:      "01JA",
			expErr:   true,
			expErrIs: model.ErrValidation,
		},
		"Unknown reference should be not found.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("GetRun", mock.Anything, "zzz").Once().Return(nil, notFound)
				m.On("ListRuns", mock.Anything).Once().Return(runs, nil)
			},
			ref:      "zzz",
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},
		"Empty reference should fail.": {
			mock:     func(m *storagemock.MockRunRepository) {},
			ref:      " ",
			expErr:   true,
			expErrIs: model.ErrValidation,
		},
		"Repository errors should propagate.": {
			mock: func(m *storagemock.MockRunRepository) {
				m.On("GetRun", mock.Anything, "x").Once().Return(nil, fmt.Errorf("database error"))
			},
			ref:    "x",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockRunRepository(t)
			test.mock(m)

			svc, err := runinspect.NewService(runinspect.ServiceConfig{Repository: m})
			require.NoError(err)

			run, err := svc.Run(context.Background(), runinspect.Request{Ref: test.ref})
			if test.expErr {
				assert.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				return
			}
			require.NoError(err)
			assert.Equal(test.expID, run.ID)
		})
	}
}
