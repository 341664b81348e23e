package assessment

import (
	"errors"
	"fmt"

	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/trades"
	"github.com/decisiveml/ruinlab/pkg/httputil"
)

// ErrSourceUnavailable means the profile needs a backend this process was
// started without.
var ErrSourceUnavailable = errors.New("trade source unavailable")

// Sources resolves a profile's source section to a trades.Source.
// Repository and Ledger are optional; profiles that need a missing one fail.
type Sources struct {
	Repository    *trades.Repository
	Ledger        *httputil.Client
	LedgerBaseURL string
}

// For returns the source described by p.
func (s Sources) For(p *profile.Profile) (trades.Source, error) {
	from, to, err := p.Source.Window()
	if err != nil {
		return nil, err
	}

	switch p.Source.Kind {
	case profile.SourceCSV:
		return trades.NewCSVSource(p.Source.Path, p.Meta.StrategyID), nil
	case profile.SourcePostgres:
		if s.Repository == nil {
			return nil, fmt.Errorf("%w: profile %s: postgres source needs DATABASE_URL", ErrSourceUnavailable, p.Meta.ProfileID)
		}
		return s.Repository.Source(p.Meta.StrategyID, from, to), nil
	case profile.SourceLedger:
		if s.Ledger == nil {
			return nil, fmt.Errorf("%w: profile %s: ledger source needs LEDGER_BASE_URL", ErrSourceUnavailable, p.Meta.ProfileID)
		}
		return trades.NewLedgerSource(s.Ledger, s.LedgerBaseURL, p.Meta.StrategyID)
	default:
		return nil, fmt.Errorf("profile %s: source kind %q cannot be resolved", p.Meta.ProfileID, p.Source.Kind)
	}
}
