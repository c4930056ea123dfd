package observer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cuemby/prognose/internal/errs"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/vector"
)

// Default sigma-point spread parameters (spec §4.5).
const (
	DefaultAlpha = 1e-3
	DefaultBeta  = 2.0
	DefaultKappa = 0.0
)

// UnscentedKalmanFilter is the reference Observer: sigma-point
// propagation through the model's state/output equations with
// configured process- and observation-noise covariances.
type UnscentedKalmanFilter struct {
	m model.Model

	alpha, beta, kappa float64

	initialized bool
	t           float64
	mean        vector.Vector
	cov         *mat.Dense // n x n
	q           *mat.Dense // n x n process noise covariance
	r           *mat.Dense // m x m observation noise covariance
}

// New builds a UKF with the default sigma-point parameters. q and r are
// flattened row-major n² and m² covariance matrices, per
// Observer.Q/Observer.R config keys.
func New(m model.Model, q, r []float64) (*UnscentedKalmanFilter, error) {
	return NewWithParams(m, q, r, DefaultAlpha, DefaultBeta, DefaultKappa)
}

// NewWithParams builds a UKF with explicit alpha/beta/kappa.
func NewWithParams(m model.Model, q, r []float64, alpha, beta, kappa float64) (*UnscentedKalmanFilter, error) {
	n := m.StateSize()
	mm := len(m.Outputs())

	if len(q) != n*n {
		return nil, errs.New(errs.SizeMismatch, "observer.New", "Observer.Q has %d values, want %d (n=%d)", len(q), n*n, n)
	}
	if len(r) != mm*mm {
		return nil, errs.New(errs.SizeMismatch, "observer.New", "Observer.R has %d values, want %d (m=%d)", len(r), mm*mm, mm)
	}

	return &UnscentedKalmanFilter{
		m:     m,
		alpha: alpha, beta: beta, kappa: kappa,
		q: mat.NewDense(n, n, append([]float64(nil), q...)),
		r: mat.NewDense(mm, mm, append([]float64(nil), r...)),
	}, nil
}

// IsInitialized reports whether Initialize has been called.
func (u *UnscentedKalmanFilter) IsInitialized() bool { return u.initialized }

// Initialize seeds the belief at x0 with a small diagonal covariance
// (1e-6 per state element) and records t0; a no-op if already
// initialized.
func (u *UnscentedKalmanFilter) Initialize(t0 float64, x0, u0 vector.Vector) {
	if u.initialized {
		return
	}
	n := u.m.StateSize()
	u.mean = x0.Clone()
	u.cov = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		u.cov.Set(i, i, 1e-6)
	}
	u.t = t0
	u.initialized = true
}

// GetStateMean returns the current posterior mean.
func (u *UnscentedKalmanFilter) GetStateMean() (vector.Vector, error) {
	if !u.initialized {
		return nil, errs.New(errs.NotSupported, "observer.GetStateMean", "observer not initialized")
	}
	return u.mean.Clone(), nil
}

// GetStateEstimate returns the posterior as one mean+covariance UData
// per state element: element i's mean is mean[i] and its covariance is
// the 1x1 variance cov[i,i]; off-diagonal covariances are not reported.
func (u *UnscentedKalmanFilter) GetStateEstimate() ([]message.UData, error) {
	if !u.initialized {
		return nil, errs.New(errs.NotSupported, "observer.GetStateEstimate", "observer not initialized")
	}
	n := u.m.StateSize()
	out := make([]message.UData, n)
	for i := 0; i < n; i++ {
		out[i] = message.NewMeanCovariance([]float64{u.mean[i]}, [][]float64{{u.cov.At(i, i)}})
	}
	return out, nil
}

// sigmaWeights returns (Wm, Wc, lambda) per spec §4.5.
func (u *UnscentedKalmanFilter) sigmaWeights(n int) (wm, wc []float64, lambda float64) {
	lambda = u.alpha*u.alpha*(float64(n)+u.kappa) - float64(n)
	wm = make([]float64, 2*n+1)
	wc = make([]float64, 2*n+1)
	wm[0] = lambda / (float64(n) + lambda)
	wc[0] = wm[0] + (1 - u.alpha*u.alpha + u.beta)
	for i := 1; i < 2*n+1; i++ {
		wm[i] = 1 / (2 * (float64(n) + lambda))
		wc[i] = wm[i]
	}
	return
}

// sigmaPoints builds the 2n+1 sigma points of mean/cov scaled by
// sqrt(n+lambda), via a Cholesky factor of cov.
func sigmaPoints(mean vector.Vector, cov *mat.Dense, n int, lambda float64) ([]vector.Vector, error) {
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, (float64(n)+lambda)*cov.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(scaled); !ok {
		return nil, errs.New(errs.NumericalFailure, "observer.sigmaPoints", "cholesky factorization failed")
	}
	var l mat.TriDense
	chol.LTo(&l)

	pts := make([]vector.Vector, 2*n+1)
	pts[0] = mean.Clone()
	for i := 0; i < n; i++ {
		col := make([]float64, n)
		for j := 0; j < n; j++ {
			col[j] = l.At(j, i)
		}
		plus := mean.Clone()
		minus := mean.Clone()
		for j := 0; j < n; j++ {
			plus[j] += col[j]
			minus[j] -= col[j]
		}
		pts[1+i] = plus
		pts[1+n+i] = minus
	}
	return pts, nil
}

// Step advances the belief from the previous time to t given input u and
// observation z, per spec §4.5's predict/update equations.
func (u *UnscentedKalmanFilter) Step(t float64, uIn, z vector.Vector) error {
	if !u.initialized {
		return errs.New(errs.NotSupported, "observer.Step", "observer not initialized")
	}
	n := u.m.StateSize()
	mOut := len(u.m.Outputs())
	dt := t - u.t
	wm, wc, lambda := u.sigmaWeights(n)

	pts, err := sigmaPoints(u.mean, u.cov, n, lambda)
	if err != nil {
		return err
	}

	// Predict: propagate sigma points through state_eqn (no noise).
	predPts := make([]vector.Vector, len(pts))
	predMean := vector.New(n)
	for i, p := range pts {
		predPts[i] = u.m.StateEqn(u.t, p, uIn, dt)
		for j := 0; j < n; j++ {
			predMean[j] += wm[i] * predPts[i][j]
		}
	}
	predCov := mat.NewDense(n, n, nil)
	for i, p := range predPts {
		dev := make([]float64, n)
		for j := 0; j < n; j++ {
			dev[j] = p[j] - predMean[j]
		}
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				predCov.Set(a, b, predCov.At(a, b)+wc[i]*dev[a]*dev[b])
			}
		}
	}
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			predCov.Set(a, b, predCov.At(a, b)+u.q.At(a, b))
		}
	}

	// Update: propagate the predicted sigma points through output_eqn.
	zPts := make([]vector.Vector, len(predPts))
	zMean := vector.New(mOut)
	for i, p := range predPts {
		zPts[i] = u.m.OutputEqn(t, p)
		for j := 0; j < mOut; j++ {
			zMean[j] += wm[i] * zPts[i][j]
		}
	}

	s := mat.NewDense(mOut, mOut, nil)
	c := mat.NewDense(n, mOut, nil)
	for i := range zPts {
		zdev := make([]float64, mOut)
		for j := 0; j < mOut; j++ {
			zdev[j] = zPts[i][j] - zMean[j]
		}
		xdev := make([]float64, n)
		for j := 0; j < n; j++ {
			xdev[j] = predPts[i][j] - predMean[j]
		}
		for a := 0; a < mOut; a++ {
			for b := 0; b < mOut; b++ {
				s.Set(a, b, s.At(a, b)+wc[i]*zdev[a]*zdev[b])
			}
		}
		for a := 0; a < n; a++ {
			for b := 0; b < mOut; b++ {
				c.Set(a, b, c.At(a, b)+wc[i]*xdev[a]*zdev[b])
			}
		}
	}
	for a := 0; a < mOut; a++ {
		for b := 0; b < mOut; b++ {
			s.Set(a, b, s.At(a, b)+u.r.At(a, b))
		}
	}

	var sInv mat.Dense
	if err := sInv.Inverse(s); err != nil {
		return errs.New(errs.NumericalFailure, "observer.Step", "innovation covariance is singular: %v", err)
	}

	var k mat.Dense
	k.Mul(c, &sInv)

	innov := make([]float64, mOut)
	for j := 0; j < mOut; j++ {
		innov[j] = z[j] - zMean[j]
	}
	innovVec := mat.NewVecDense(mOut, innov)

	var correction mat.VecDense
	correction.MulVec(&k, innovVec)

	newMean := vector.New(n)
	for i := 0; i < n; i++ {
		newMean[i] = predMean[i] + correction.AtVec(i)
	}

	var ks mat.Dense
	ks.Mul(&k, s)
	var ksKt mat.Dense
	ksKt.Mul(&ks, k.T())

	newCov := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			newCov.Set(i, j, predCov.At(i, j)-ksKt.At(i, j))
		}
	}

	u.mean = newMean
	u.cov = newCov
	u.t = t
	return nil
}
