package modem

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/benmeehan/telematics-agent/pkg/atcmd"
)

// bearerProfile is the AT+SAPBR profile used for the IP application bearer.
const bearerProfile = 1

// shutOK is the answer of AT+CIPSHUT, sent in place of OK.
const shutOK = "SHUT OK"

// ActivateNetwork brings the data path up: PDP context, TCP/IP task with a local address, IP
// application bearer and, when configured, the application network. Every step queries before
// it mutates, so running it again on an active link only issues queries. The first failing
// step aborts the sequence.
func (m *Modem) ActivateNetwork(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activateNetwork(ctx)
}

type networkStep struct {
	name string
	run  func(context.Context) error
}

func (m *Modem) activateNetwork(ctx context.Context) error {
	steps := []networkStep{
		{"context", m.contextStep},
		{"transport", m.transportStep},
		{"bearer", m.bearerStep},
	}
	if m.cfg.AppNetwork {
		steps = append(steps, networkStep{"app_network", m.appNetworkStep})
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			m.logger.Error().Err(err).Str("step", step.name).Msg("Network activation failed")
			return fmt.Errorf("%s step: %w", step.name, err)
		}
	}

	m.logger.Info().Str("local_ip", m.LocalIP()).Str("status", m.Status().String()).Msg("Network active")
	return nil
}

// contextStep checks the PDP context and rewrites its APN when it differs from the configuration.
func (m *Modem) contextStep(ctx context.Context) error {
	apn := m.cfg.APN
	cid := strconv.Itoa(apn.CID)

	res, err := m.query(ctx, atcmd.CGACT, "?")
	if err != nil {
		return err
	}
	active := false
	for _, line := range res.Lines() {
		f := atcmd.Tokens(atcmd.AfterColon(line), ",", true)
		if strings.HasPrefix(line, "+CGACT:") && len(f) > 1 && atcmd.Trim(f[0]) == cid {
			active = atcmd.ToInt[int](f[1]) == 1
		}
	}
	m.SetStatus(StatusGPRS, active)

	res, err = m.query(ctx, atcmd.CGPADDR, "="+cid)
	if err != nil {
		return err
	}
	if params, ok := res.Params("+CGPADDR:"); ok {
		addr, _ := atcmd.ExtractToken(params, 1, ",", true)
		m.logger.Debug().Str("cid", cid).Bool("active", active).Str("address", atcmd.Trim(addr)).Msg("PDP context")
	}

	res, err = m.query(ctx, atcmd.CGDCONT, "?")
	if err != nil {
		return err
	}
	stored := ""
	for _, line := range res.Lines() {
		if !strings.HasPrefix(line, "+CGDCONT:") {
			continue
		}
		f := atcmd.SplitQuoted(atcmd.AfterColon(line))
		if len(f) > 2 && f[0] == cid {
			stored = f[2]
		}
	}
	if stored != apn.Name {
		m.logger.Warn().Str("expected_apn", apn.Name).Str("stored_apn", stored).Str("cid", cid).Msg("Rewriting PDP context APN")
		if _, err := m.query(ctx, atcmd.CGDCONT, fmt.Sprintf(`=%s,"IP","%s"`, cid, apn.Name)); err != nil {
			return err
		}
	}

	res, err = m.query(ctx, atcmd.CGNAPN, "")
	if err != nil {
		return err
	}
	params, _ := res.Params("+CGNAPN:")
	f := atcmd.SplitQuoted(params)
	if len(f) < 2 || atcmd.ToInt[int](f[0]) != 1 || f[1] == "" {
		m.logger.Error().Str("expected_apn", apn.Name).Str("network_apn", params).Msg("Network did not provide an APN")
		return ErrNoNetworkAPN
	}
	if f[1] != apn.Name {
		m.logger.Warn().Str("expected_apn", apn.Name).Str("network_apn", f[1]).Msg("Network APN differs from configuration")
	}
	return nil
}

// transportStep starts the TCP/IP task with the configured APN, brings the wireless link up
// and reads the local address.
func (m *Modem) transportStep(ctx context.Context) error {
	apn := m.cfg.APN

	state, err := m.connectionState(ctx)
	if err != nil {
		return err
	}
	stored, err := m.taskAPN(ctx)
	if err != nil {
		return err
	}

	if stored != apn.Name || state == ConnectionDeactivated || state == ConnectionInitial {
		m.logger.Info().
			Str("expected_apn", apn.Name).
			Str("stored_apn", stored).
			Str("state", state.String()).
			Msg("Starting TCP/IP task")

		if state != ConnectionInitial {
			if err := m.shutdown(ctx); err != nil {
				return err
			}
		}
		params := fmt.Sprintf(`="%s","%s","%s"`, apn.Name, apn.User, apn.Password)
		if _, err := m.query(ctx, atcmd.CSTT, params); err != nil {
			return err
		}

		if state, err = m.connectionState(ctx); err != nil {
			return err
		}
	}

	switch {
	case state == ConnectionStart:
		if _, err := m.query(ctx, atcmd.CIICR, ""); err != nil {
			return err
		}
	case state.linkUp():
	default:
		m.logger.Error().Str("expected", ConnectionStart.String()).Str("observed", state.String()).Msg("Unexpected connection state")
		return fmt.Errorf("%w: %s", ErrUnexpectedState, state)
	}
	m.SetStatus(StatusTCP, true)

	ip, err := m.localAddress(ctx)
	if err != nil {
		return err
	}
	m.statusMu.Lock()
	m.localIP = ip
	m.status |= StatusIPActive
	m.statusMu.Unlock()
	return nil
}

// connectionState runs AT+CIPSTATUS. The state line follows the OK, so it is collected by the
// notification dispatcher and handed over through stateCh.
func (m *Modem) connectionState(ctx context.Context) (ConnectionState, error) {
	select {
	case <-m.stateCh:
	default:
	}

	if _, err := m.query(ctx, atcmd.CIPSTATUS, ""); err != nil {
		return ConnectionUnknown, err
	}

	timer := time.NewTimer(m.cfg.StateTimeout)
	defer timer.Stop()
	select {
	case st := <-m.stateCh:
		return st, nil
	case <-timer.C:
		return ConnectionUnknown, fmt.Errorf("%w: no state after %s", ErrUnexpectedState, atcmd.CIPSTATUS)
	case <-ctx.Done():
		return ConnectionUnknown, ctx.Err()
	}
}

// taskAPN returns the APN the TCP/IP task was started with (+CSTT: "apn","user","pwd").
func (m *Modem) taskAPN(ctx context.Context) (string, error) {
	res, err := m.query(ctx, atcmd.CSTT, "?")
	if err != nil {
		return "", err
	}
	params, ok := res.Params("+CSTT:")
	if !ok {
		return "", nil
	}
	return atcmd.SplitQuoted(params)[0], nil
}

// shutdown deactivates the PDP context of the TCP/IP task.
func (m *Modem) shutdown(ctx context.Context) error {
	res := atcmd.NewResult()
	if err := m.exec(ctx, atcmd.Request{Command: atcmd.CIPSHUT, Raw: true}, res); err != nil {
		return err
	}
	if !strings.Contains(res.Response, shutOK) {
		return fmt.Errorf("%w: %s answered %q", ErrUnexpectedState, atcmd.CIPSHUT, atcmd.Trim(res.Response))
	}
	m.SetStatus(StatusGPRS|StatusTCP|StatusIPActive, false)
	return nil
}

// localAddress reads the local IP address. AT+CIFSR answers with the bare address and no
// result code, so the response is read in raw mode.
func (m *Modem) localAddress(ctx context.Context) (string, error) {
	res := atcmd.NewResult()
	if err := m.exec(ctx, atcmd.Request{Command: atcmd.CIFSR, Raw: true}, res); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoLocalAddress, err)
	}
	ip := atcmd.Trim(res.Response)
	if net.ParseIP(ip) == nil {
		m.logger.Error().Str("response", ip).Msg("Invalid local address")
		return "", fmt.Errorf("%w: %q", ErrNoLocalAddress, ip)
	}
	return ip, nil
}

// bearerStep opens the IP application bearer when it is not connected.
func (m *Modem) bearerStep(ctx context.Context) error {
	apn := m.cfg.APN

	status, err := m.bearerStatus(ctx)
	if err != nil {
		return err
	}
	if status == BearerConnected {
		return nil
	}

	m.logger.Info().Str("status", status.String()).Msg("Opening IP bearer")
	settings := []struct{ tag, value string }{
		{"APN", apn.Name},
		{"USER", apn.User},
		{"PWD", apn.Password},
	}
	for _, s := range settings {
		if s.value == "" {
			continue
		}
		params := fmt.Sprintf(`=3,%d,"%s","%s"`, bearerProfile, s.tag, s.value)
		if _, err := m.query(ctx, atcmd.SAPBR, params); err != nil {
			return err
		}
	}
	if _, err := m.query(ctx, atcmd.SAPBR, fmt.Sprintf("=1,%d", bearerProfile)); err != nil {
		return err
	}

	if status, err = m.bearerStatus(ctx); err != nil {
		return err
	}
	if status != BearerConnected {
		m.logger.Error().Str("expected", BearerConnected.String()).Str("observed", status.String()).Msg("Bearer not connected")
		return fmt.Errorf("%w: %s", ErrBearerNotConnected, status)
	}
	return nil
}

// bearerStatus queries the bearer profile (+SAPBR: <cid>,<status>,"<ip>").
func (m *Modem) bearerStatus(ctx context.Context) (BearerStatus, error) {
	res, err := m.query(ctx, atcmd.SAPBR, fmt.Sprintf("=2,%d", bearerProfile))
	if err != nil {
		return BearerUnknown, err
	}
	params, ok := res.Params("+SAPBR:")
	if !ok {
		return BearerUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	status, ok := atcmd.ExtractToken(params, 1, ",", true)
	if !ok {
		return BearerUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, params)
	}
	return ParseBearerStatus(atcmd.ToInt[int](status)), nil
}

// appNetworkStep activates the application network used by the modem MQTT client.
func (m *Modem) appNetworkStep(ctx context.Context) error {
	state, err := m.appNetworkState(ctx)
	if err != nil {
		return err
	}
	if state == AppNetworkActive || state == AppNetworkInOperation {
		m.SetStatus(StatusAppNetwork, true)
		return nil
	}

	m.logger.Info().Str("state", state.String()).Msg("Activating application network")
	if _, err := m.query(ctx, atcmd.CNACT, fmt.Sprintf(`=1,"%s"`, m.cfg.APN.Name)); err != nil {
		return err
	}
	if state, err = m.appNetworkState(ctx); err != nil {
		return err
	}
	if state != AppNetworkActive && state != AppNetworkInOperation {
		m.logger.Error().Str("expected", AppNetworkActive.String()).Str("observed", state.String()).Msg("Application network inactive")
		return fmt.Errorf("%w: %s", ErrAppNetworkInactive, state)
	}
	m.SetStatus(StatusAppNetwork, true)
	return nil
}

// appNetworkState queries +CNACT: <status>,"<ip>".
func (m *Modem) appNetworkState(ctx context.Context) (AppNetworkState, error) {
	res, err := m.query(ctx, atcmd.CNACT, "?")
	if err != nil {
		return AppNetworkUnknown, err
	}
	params, ok := res.Params("+CNACT:")
	if !ok {
		return AppNetworkUnknown, fmt.Errorf("%w: %q", ErrMalformedResponse, res.Response)
	}
	status, _ := atcmd.ExtractToken(params, 0, ",", true)
	return ParseAppNetworkState(atcmd.ToInt[int](status)), nil
}

// DeactivateNetwork closes the bearer and the application network and shuts the TCP/IP task.
func (m *Modem) DeactivateNetwork(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, err := m.bearerStatus(ctx)
	if err != nil {
		return err
	}
	if status == BearerConnected {
		if _, err := m.query(ctx, atcmd.SAPBR, fmt.Sprintf("=0,%d", bearerProfile)); err != nil {
			return fmt.Errorf("close bearer: %w", err)
		}
	}

	state, err := m.appNetworkState(ctx)
	if err != nil {
		return err
	}
	if state == AppNetworkActive || state == AppNetworkInOperation {
		if _, err := m.query(ctx, atcmd.CNACT, "=0"); err != nil {
			return fmt.Errorf("deactivate application network: %w", err)
		}
	}

	if err := m.shutdown(ctx); err != nil {
		return err
	}

	m.statusMu.Lock()
	m.status &^= networkStatus | StatusMQTTEnabled
	m.localIP = ""
	m.statusMu.Unlock()
	m.logger.Info().Msg("Network deactivated")
	return nil
}
