package incident

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// bindArgs returns the values for columnList in order.
func bindArgs(inc *incident.Incident) ([]any, error) {
	args := make([]any, 0, len(columnList))
	args = append(args, inc.UUID)
	for _, c := range textColumns {
		args = append(args, nullString(*c.field(inc)))
	}
	for _, c := range boolColumns {
		args = append(args, nullBool(*c.field(inc)))
	}

	var altitude sql.NullInt64
	if inc.FlightAltitude != nil {
		altitude = sql.NullInt64{Int64: int64(*inc.FlightAltitude), Valid: true}
	}
	var wind sql.NullFloat64
	if inc.WindSpeedMS != nil {
		wind = sql.NullFloat64{Float64: *inc.WindSpeedMS, Valid: true}
	}
	var collapse sql.NullString
	if len(inc.CollapseTypes) > 0 {
		raw, err := json.Marshal(inc.CollapseTypes)
		if err != nil {
			return nil, fmt.Errorf("marshal collapse_types: %w", err)
		}
		collapse = sql.NullString{String: string(raw), Valid: true}
	}
	args = append(args, altitude, wind, collapse,
		inc.Verified, inc.CreatedAt.UnixMilli(), inc.UpdatedAt.UnixMilli())

	for _, f := range incident.Factors {
		v, ok := inc.Factor(f.Name)
		if !ok {
			args = append(args, nil)
			continue
		}
		args = append(args, v)
	}
	return args, nil
}

// scanIncident reads one row selected with selectList.
func scanIncident(s rowScanner) (incident.Incident, error) {
	var (
		inc       incident.Incident
		texts     = make([]sql.NullString, len(textColumns))
		bools     = make([]sql.NullBool, len(boolColumns))
		factors   = make([]sql.NullBool, len(incident.Factors))
		altitude  sql.NullInt64
		wind      sql.NullFloat64
		collapse  sql.NullString
		createdAt int64
		updatedAt int64
	)

	dest := make([]any, 0, len(columnList)+1)
	dest = append(dest, &inc.ID, &inc.UUID)
	for i := range texts {
		dest = append(dest, &texts[i])
	}
	for i := range bools {
		dest = append(dest, &bools[i])
	}
	dest = append(dest, &altitude, &wind, &collapse, &inc.Verified, &createdAt, &updatedAt)
	for i := range factors {
		dest = append(dest, &factors[i])
	}
	if err := s.Scan(dest...); err != nil {
		return incident.Incident{}, err
	}

	for i, c := range textColumns {
		*c.field(&inc) = texts[i].String
	}
	for i, c := range boolColumns {
		if bools[i].Valid {
			v := bools[i].Bool
			*c.field(&inc) = &v
		}
	}
	if altitude.Valid {
		v := int(altitude.Int64)
		inc.FlightAltitude = &v
	}
	if wind.Valid {
		v := wind.Float64
		inc.WindSpeedMS = &v
	}
	if collapse.Valid && collapse.String != "" {
		if err := json.Unmarshal([]byte(collapse.String), &inc.CollapseTypes); err != nil {
			return incident.Incident{}, fmt.Errorf("decode collapse_types of %s: %w", inc.UUID, err)
		}
	}
	for i, f := range incident.Factors {
		if factors[i].Valid {
			inc.SetFactor(f.Name, factors[i].Bool)
		}
	}
	inc.CreatedAt = time.UnixMilli(createdAt).UTC()
	inc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return inc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
