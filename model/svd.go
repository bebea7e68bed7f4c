// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gorse-io/cinema/base"
	"github.com/gorse-io/cinema/base/log"
	"github.com/gorse-io/cinema/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// ErrInsufficientData is returned when the rating matrix cannot support the requested rank.
const ErrInsufficientData = errors.ConstError("insufficient data")

const (
	DefaultNFactors     = 50
	DefaultNIter        = 20
	DefaultNOversamples = 10
	DefaultRandomState  = 42
)

// FitConfig holds runtime options of fitting.
type FitConfig struct {
	Jobs int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{Jobs: 1}
}

func (config *FitConfig) SetJobs(nJobs int) *FitConfig {
	config.Jobs = nJobs
	return config
}

// SVD is a truncated singular value decomposition computed by randomized
// range finding (Halko, Martinsson and Tropp, 2011). The rating matrix A is
// approximated as
//
//	A ≈ U_k Σ_k V_k^T = UserFactor × ItemBasis
//
// and the dense product is cached in Predicted after fitting.
type SVD struct {
	Params Params
	// Model parameters
	UserFactor *mat.Dense // U_k Σ_k, n_users × k
	ItemBasis  *mat.Dense // V_k^T, k × n_items
	Predicted  *mat.Dense // UserFactor × ItemBasis
	Singular   []float64  // σ_1 ≥ ... ≥ σ_k
	// Hyper parameters
	nFactors     int
	nIter        int
	nOversamples int
	randomState  int64
}

// NewSVD creates a SVD model. Params:
//
//	NFactors     - The rank of the approximation. Default is 50.
//	NIter        - The number of power iterations. Default is 20.
//	NOversamples - The number of extra random projections. Default is 10.
//	RandomState  - The seed of the random projections. Default is 42.
func NewSVD(params Params) *SVD {
	svd := new(SVD)
	svd.SetParams(params)
	return svd
}

func (svd *SVD) SetParams(params Params) {
	svd.Params = params.Copy()
	svd.nFactors = params.GetInt(NFactors, DefaultNFactors)
	svd.nIter = params.GetInt(NIter, DefaultNIter)
	svd.nOversamples = params.GetInt(NOversamples, DefaultNOversamples)
	svd.randomState = params.GetInt64(RandomState, DefaultRandomState)
}

func (svd *SVD) GetParams() Params {
	return svd.Params
}

// Invalid reports whether the model has not been fitted.
func (svd *SVD) Invalid() bool {
	return svd == nil || svd.Predicted == nil
}

// Fit decomposes the rating matrix. It fails with ErrInsufficientData when the
// matrix is empty or the rank is outside [1, min(n_users, n_items) - 1].
func (svd *SVD) Fit(ctx context.Context, ratings *dataset.SparseMatrix, config *FitConfig) error {
	if config == nil {
		config = NewFitConfig()
	}
	nUsers, nItems := ratings.Dims()
	if nUsers == 0 || nItems == 0 {
		return fmt.Errorf("%w: rating matrix is %dx%d", ErrInsufficientData, nUsers, nItems)
	}
	maxRank := min(nUsers, nItems) - 1
	if svd.nFactors < 1 || svd.nFactors > maxRank {
		return fmt.Errorf("%w: rank %d is out of [1, %d] for a %dx%d rating matrix",
			ErrInsufficientData, svd.nFactors, maxRank, nUsers, nItems)
	}
	log.Logger().Info("fit svd",
		zap.Int("n_users", nUsers),
		zap.Int("n_items", nItems),
		zap.Int("n_ratings", ratings.NNZ()),
		zap.Any("params", svd.GetParams()),
		zap.Int("jobs", config.Jobs))
	start := time.Now()

	transposed := ratings.Transpose()
	nComponents := min(svd.nFactors+svd.nOversamples, nUsers, nItems)
	rng := base.NewRandomGenerator(svd.randomState)
	omega := rng.NormalMatrix(nItems, nComponents, 0, 1)

	// range finder with power iterations
	q := orthonormalize(ratings.MulDense(omega, config.Jobs))
	for i := 0; i < svd.nIter; i++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		z := orthonormalize(transposed.MulDense(q, config.Jobs))
		q = orthonormalize(ratings.MulDense(z, config.Jobs))
	}

	// B = Q^T A, computed as (A^T Q)^T
	b := transposed.MulDense(q, config.Jobs).T()
	var factorization mat.SVD
	if ok := factorization.Factorize(b, mat.SVDThin); !ok {
		return errors.New("svd factorization failed")
	}
	var ub, v mat.Dense
	factorization.UTo(&ub)
	factorization.VTo(&v)
	values := factorization.Values(nil)
	var u mat.Dense
	u.Mul(q, &ub)
	flipSigns(&u, &v)

	k := svd.nFactors
	svd.Singular = values[:k]
	svd.UserFactor = mat.DenseCopyOf(u.Slice(0, nUsers, 0, k))
	for j := 0; j < k; j++ {
		col := mat.Col(nil, j, svd.UserFactor)
		floats.Scale(values[j], col)
		svd.UserFactor.SetCol(j, col)
	}
	svd.ItemBasis = mat.DenseCopyOf(v.Slice(0, nItems, 0, k).T())
	svd.Predicted = mat.NewDense(nUsers, nItems, nil)
	svd.Predicted.Mul(svd.UserFactor, svd.ItemBasis)

	log.Logger().Info("fit svd complete",
		zap.String("fit_time", time.Since(start).String()),
		zap.Float64("max_singular_value", values[0]),
		zap.Float64("min_singular_value", values[k-1]))
	return nil
}

// PredictRow returns the predicted scores of all items for a user index. The
// slice shares memory with the model and must not be modified.
func (svd *SVD) PredictRow(userIndex int) []float64 {
	return svd.Predicted.RawRowView(userIndex)
}

// orthonormalize returns an orthonormal basis of the columns of a (rows >= cols).
// Only the thin rows × cols factor Q is formed.
func orthonormalize(a *mat.Dense) *mat.Dense {
	_, cols := a.Dims()
	q := mat.DenseCopyOf(a)
	raw := q.RawMatrix()
	tau := make([]float64, cols)
	// workspace queries
	geqrfWork, orgqrWork := make([]float64, 1), make([]float64, 1)
	lapack64.Geqrf(raw, tau, geqrfWork, -1)
	lapack64.Orgqr(raw, tau, orgqrWork, -1)
	work := make([]float64, max(int(geqrfWork[0]), int(orgqrWork[0]), cols, 1))
	lapack64.Geqrf(raw, tau, work, len(work))
	lapack64.Orgqr(raw, tau, work, len(work))
	return q
}

// flipSigns makes the entry with the largest magnitude in each column of u
// positive, flipping the matching column of v. This makes the decomposition
// deterministic up to the random projections.
func flipSigns(u, v *mat.Dense) {
	rows, cols := u.Dims()
	vRows, _ := v.Dims()
	for j := 0; j < cols; j++ {
		maxAbs, sign := 0.0, 1.0
		for i := 0; i < rows; i++ {
			if value := u.At(i, j); math.Abs(value) > maxAbs {
				maxAbs = math.Abs(value)
				sign = math.Copysign(1, value)
			}
		}
		if sign < 0 {
			for i := 0; i < rows; i++ {
				u.Set(i, j, -u.At(i, j))
			}
			for i := 0; i < vRows; i++ {
				v.Set(i, j, -v.At(i, j))
			}
		}
	}
}
