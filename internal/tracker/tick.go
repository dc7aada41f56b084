package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redqct/redqct/internal/graph"
	"go.uber.org/zap"
)

// tickUser runs rollover, sampling, legend growth and the minute draw for one user.
func (r *Registry) tickUser(ctx context.Context, user *User, now time.Time) error {
	local := user.Offset.Apply(now)

	if isRolloverMinute(local) && user.Profile.LastRollover != local.Format(dateLayout) {
		if err := r.rollover(ctx, user, local); err != nil {
			return fmt.Errorf("rollover: %w", err)
		}
	}

	member, err := r.platform.IsMember(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		r.logger.Info("User left the group, untracking", zap.String("userID", user.ID))
		return r.untrack(user.ID)
	}

	raw, err := r.platform.ActivityNames(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to sample activities: %w", err)
	}

	names := NormalizeNames(raw)
	if len(names) == 0 {
		return nil
	}

	img, err := r.store.ReadGraph(user.ID, Today)
	if err != nil {
		return err
	}

	// New entries go into a copy that replaces the user's legend only once
	// the graph holding their swatches is saved.
	legend := user.Legend.Clone()
	grown := false

	for _, name := range names {
		if legend.Has(name) {
			continue
		}

		e := legend.Len()
		colour := r.allocator.Allocate(name, legend.Used)

		if graph.NeedsPanel(e) {
			img = graph.ExtendLegend(img)
		}

		if err := r.renderer.DrawLegendEntry(img, colour, name, graph.LegendOrigin(e)); err != nil {
			return fmt.Errorf("failed to draw legend entry: %w", err)
		}

		legend.Add(name, colour)
		grown = true

		r.logger.Debug("New legend entry",
			zap.String("userID", user.ID),
			zap.String("name", name),
			zap.Stringer("colour", colour),
			zap.Int("index", e))
	}

	graph.DrawMinute(img, names, legend.ColourOf, graph.ColumnX(local.Hour(), local.Minute()))

	if err := r.store.WriteGraph(user.ID, Today, img); err != nil {
		return err
	}

	if grown {
		user.Legend = legend
		if err := r.store.WriteLegend(user.ID, user.Legend); err != nil {
			return err
		}
	}

	return nil
}

// isRolloverMinute reports whether local is exactly minute 0 of hour 0.
func isRolloverMinute(local time.Time) bool {
	return local.Hour() == 0 && local.Minute() == 0
}

// rollover archives today's graph as yesterday's and starts a fresh day with
// an empty legend. The cached identity is refreshed when possible.
func (r *Registry) rollover(ctx context.Context, user *User, local time.Time) error {
	if identity, err := r.platform.Identity(ctx, user.ID); err == nil {
		user.Profile.Name = identity.Name
		user.Profile.Tag = identity.Tag
	} else {
		r.logger.Warn("Failed to refresh identity, using cached one",
			zap.String("userID", user.ID),
			zap.Error(err))
	}

	today, err := r.store.GraphBytes(user.ID, Today)
	if err != nil {
		return err
	}

	if err := r.store.WriteGraphBytes(user.ID, Yesterday, today); err != nil {
		return err
	}

	empty, err := r.renderer.Empty(user.Profile.Name, user.Profile.Tag, local, user.Offset.Hours, user.Offset.Minutes)
	if err != nil {
		return fmt.Errorf("failed to render empty graph: %w", err)
	}

	if err := r.store.WriteGraph(user.ID, Today, empty); err != nil {
		return err
	}

	user.Legend.Reset()
	if err := r.store.WriteLegend(user.ID, user.Legend); err != nil {
		return err
	}

	user.Profile.LastRollover = local.Format(dateLayout)
	if err := r.store.WriteProfile(user.ID, user.Profile); err != nil {
		return err
	}

	r.logger.Info("Rolled over graph",
		zap.String("userID", user.ID),
		zap.String("date", user.Profile.LastRollover))

	return nil
}
