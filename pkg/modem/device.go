package modem

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// probeTimeout bounds each AT probe while waiting for the module to boot.
const probeTimeout = 500 * time.Millisecond

// clockLayout is the date and time part of +CCLK.
const clockLayout = "06/01/02,15:04:05"

// Identification holds the identity strings of the module and SIM.
type Identification struct {
	Manufacturer string
	Model        string
	Revision     string
	IMEI         string
	ICCID        string
	IMSI         string
}

// Operator is the network operator the module is registered on.
type Operator struct {
	Mode       int
	Name       string
	Technology AccessTechnology
}

// ServingCell describes the serving cell reported by AT+CPSI?.
type ServingCell struct {
	System   string
	Online   bool
	MCC      int
	MNC      int
	AreaCode int
	CellID   int
}

// Initialize waits for the module to answer, applies the base configuration and checks the SIM.
func (m *Modem) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := atcmd.NewResult()
	var err error
	for attempt := 1; attempt <= m.cfg.InitRetries; attempt++ {
		err = m.exec(ctx, atcmd.Request{Command: atcmd.AT, Timeout: probeTimeout}, res)
		if err == nil {
			break
		}
		m.logger.Warn().Err(err).Int("attempt", attempt).Msg("Modem did not answer AT probe")
		if attempt == m.cfg.InitRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.InitRetryDelay):
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotResponding, err)
	}

	if !m.Status().Has(StatusEchoDisabled) {
		if err := m.exec(ctx, atcmd.Request{Command: atcmd.Echo, Params: "0"}, res); err != nil {
			return fmt.Errorf("disable echo: %w", err)
		}
		m.SetStatus(StatusEchoDisabled, true)
	}

	if err := m.exec(ctx, atcmd.Request{Command: atcmd.CMEE, Params: "=1"}, res); err != nil {
		return fmt.Errorf("enable error codes: %w", err)
	}
	if err := m.exec(ctx, atcmd.Request{Command: atcmd.CLTS, Params: "=1"}, res); err != nil {
		return fmt.Errorf("enable network time: %w", err)
	}

	sim, err := m.simStatus(ctx)
	if err != nil {
		return err
	}
	if sim != SIMReady {
		m.logger.Error().Str("expected", SIMReady.String()).Str("observed", sim.String()).Msg("SIM not ready")
		return fmt.Errorf("%w: %s", ErrSIMNotReady, sim)
	}

	m.logger.Info().Msg("Modem initialized")
	return nil
}

// SIMStatus queries the SIM state.
func (m *Modem) SIMStatus(ctx context.Context) (SIMStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.simStatus(ctx)
}

func (m *Modem) simStatus(ctx context.Context) (SIMStatus, error) {
	res, err := m.query(ctx, atcmd.CPIN, "?")
	if err != nil {
		return SIMUnknown, fmt.Errorf("query SIM: %w", err)
	}
	line, ok := res.Line("+CPIN:")
	if !ok {
		return SIMUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	return ParseSIMStatus(line), nil
}

// Identify reads the module and SIM identity.
func (m *Modem) Identify(ctx context.Context) (Identification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id Identification
	fields := []struct {
		cmd    atcmd.Command
		target *string
	}{
		{atcmd.CGMI, &id.Manufacturer},
		{atcmd.CGMM, &id.Model},
		{atcmd.CGMR, &id.Revision},
		{atcmd.CGSN, &id.IMEI},
		{atcmd.CCID, &id.ICCID},
		{atcmd.CIMI, &id.IMSI},
	}
	for _, f := range fields {
		res, err := m.query(ctx, f.cmd, "")
		if err != nil {
			return id, fmt.Errorf("identify %s: %w", f.cmd, err)
		}
		*f.target = identityValue(res)
	}
	id.Revision = strings.TrimPrefix(id.Revision, "Revision:")
	return id, nil
}

// identityValue returns the first response line, without any information prefix.
func identityValue(res *atcmd.Result) string {
	lines := res.Lines()
	if len(lines) == 0 {
		return ""
	}
	line := lines[0]
	if strings.HasPrefix(line, "+") {
		line = atcmd.AfterColon(line)
	}
	return atcmd.Trim(line)
}

// SignalQuality queries the received signal strength.
func (m *Modem) SignalQuality(ctx context.Context) (SignalQuality, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.CSQ, "")
	if err != nil {
		return SignalQuality{}, fmt.Errorf("query signal quality: %w", err)
	}
	params, ok := res.Params("+CSQ:")
	if !ok {
		return SignalQuality{}, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	f := atcmd.Tokens(params, ",", true)
	if len(f) < 2 {
		return SignalQuality{}, fmt.Errorf("%w: %q", ErrMalformedResponse, params)
	}
	return NewSignalQuality(atcmd.ToInt[int](f[0]), atcmd.ToInt[int](f[1])), nil
}

// Operator queries the registered network operator.
func (m *Modem) Operator(ctx context.Context) (Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.COPS, "?")
	if err != nil {
		return Operator{}, fmt.Errorf("query operator: %w", err)
	}
	params, ok := res.Params("+COPS:")
	if !ok {
		return Operator{}, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	f := atcmd.SplitQuoted(params)
	op := Operator{Mode: atcmd.ToInt[int](f[0])}
	if len(f) > 2 {
		op.Name = f[2]
	}
	if len(f) > 3 {
		op.Technology = ParseAccessTechnology(atcmd.ToInt[int](f[3]))
	}
	return op, nil
}

// RegistrationStatus queries the packet domain registration.
func (m *Modem) RegistrationStatus(ctx context.Context) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.CGREG, "?")
	if err != nil {
		return RegistrationUnknown, fmt.Errorf("query registration: %w", err)
	}
	params, ok := res.Params("+CGREG:")
	if !ok {
		return RegistrationUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	stat, ok := atcmd.ExtractToken(params, 1, ",", true)
	if !ok {
		return RegistrationUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, params)
	}
	return ParseRegistration(atcmd.ToInt[int](stat)), nil
}

// Functionality queries the phone functionality level (0 minimum, 1 full, 4 flight mode).
func (m *Modem) Functionality(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.CFUN, "?")
	if err != nil {
		return 0, fmt.Errorf("query functionality: %w", err)
	}
	params, ok := res.Params("+CFUN:")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	return atcmd.ToInt[int](params), nil
}

// SetFunctionality changes the phone functionality level. Anything but full functionality
// tears the data path down.
func (m *Modem) SetFunctionality(ctx context.Context, fun int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.query(ctx, atcmd.CFUN, "="+strconv.Itoa(fun)); err != nil {
		return fmt.Errorf("set functionality %d: %w", fun, err)
	}
	if fun != 1 {
		m.SetStatus(networkStatus|StatusMQTTEnabled, false)
	}
	return nil
}

// Clock reads the real time clock, which follows network time once AT+CLTS=1 is applied.
func (m *Modem) Clock(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.CCLK, "?")
	if err != nil {
		return time.Time{}, fmt.Errorf("query clock: %w", err)
	}
	content, ok := atcmd.ExtractContent(res.Response, `"`, `"`)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	return ParseClock(content)
}

// ParseClock decodes "yy/MM/dd,hh:mm:ss±zz" where zz is in quarters of an hour.
func ParseClock(s string) (time.Time, error) {
	if len(s) < len(clockLayout) {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrMalformedResponse, s)
	}
	quarters := 0
	if zone := s[len(clockLayout):]; zone != "" {
		q, err := strconv.Atoi(zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: clock zone %q", ErrMalformedResponse, zone)
		}
		quarters = q
	}
	loc := time.FixedZone("", quarters*15*60)
	t, err := time.ParseInLocation(clockLayout, s[:len(clockLayout)], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return t, nil
}

// ServingCell queries the serving cell identity used for cell based geolocation.
func (m *Modem) ServingCell(ctx context.Context) (ServingCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.query(ctx, atcmd.CPSI, "?")
	if err != nil {
		return ServingCell{}, fmt.Errorf("query serving cell: %w", err)
	}
	params, ok := res.Params("+CPSI:")
	if !ok {
		return ServingCell{}, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	return ParseServingCell(params)
}

// ParseServingCell decodes the parameters of +CPSI, e.g.
// "LTE CAT-M1,Online,334-020,0x2C1D,13457168,282,EUTRAN-BAND2,900,3,3,-10,-95,-65,15".
func ParseServingCell(params string) (ServingCell, error) {
	f := atcmd.Tokens(params, ",", true)
	if len(f) < 5 {
		return ServingCell{System: atcmd.Trim(params)}, fmt.Errorf("%w: serving cell %q", ErrMalformedResponse, params)
	}
	cell := ServingCell{
		System: f[0],
		Online: f[1] == "Online",
	}
	mcc, mnc, _ := strings.Cut(f[2], "-")
	cell.MCC = atcmd.ToInt[int](mcc)
	cell.MNC = atcmd.ToInt[int](mnc)
	area, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(f[3]), "0x"), 16, 64)
	if err != nil {
		return cell, fmt.Errorf("%w: area code %q", ErrMalformedResponse, f[3])
	}
	cell.AreaCode = int(area)
	cell.CellID = atcmd.ToInt[int](f[4])
	return cell, nil
}

// PowerDown asks the module to power off. The module answers with NORMAL POWER DOWN instead of
// a result code, so the response is not awaited.
func (m *Modem) PowerDown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := atcmd.NewResult()
	if err := m.exec(ctx, atcmd.Request{Command: atcmd.CPOWD, Params: "=1", IgnoreResponse: true}, res); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	m.SetStatus(^Status(0), false)
	return nil
}
