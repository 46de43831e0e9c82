package hfp

import "strings"

// Company IDs (Bluetooth SIG assigned numbers) for the vendor-specific AT
// commands this package recognises by name.
const (
	CompanyPlantronics = 10
	CompanyGoogle      = 224
	CompanyApple       = 76
)

// vendorCommandCompanyID maps a vendor AT command name to the company ID
// it is broadcast under, mirroring VENDOR_SPECIFIC_AT_COMMAND_COMPANY_ID.
var vendorCommandCompanyID = map[string]int{
	"+XEVENT":      CompanyPlantronics,
	"+ANDROID":     CompanyGoogle,
	"+XAPL":        CompanyApple,
	"+IPHONEACCEV": CompanyApple,
}

// processUnknownAt is the fallback for any AT command this package has no
// dedicated handler for. It normalises the command, then routes phonebook
// prefixes (+CSCS/+CPBS/+CPBR) to the AtPhonebook sub-protocol and
// everything else through the vendor-specific path.
func (m *Machine) processUnknownAt(atString string) {
	cmd := parseUnknownAt(atString)
	kind := atCommandTypeOf(cmd)
	cmd = strings.TrimPrefix(cmd, "AT")
	switch {
	case strings.HasPrefix(cmd, "+CSCS"):
		m.processAtCscs(cmd[5:], kind)
	case strings.HasPrefix(cmd, "+CPBS"):
		m.processAtCpbs(cmd[5:], kind)
	case strings.HasPrefix(cmd, "+CPBR"):
		m.processAtCpbr(cmd[5:], kind)
	default:
		m.processVendorSpecificAt(cmd)
	}
}

// processVendorSpecificAt handles every vendor AT command that isn't
// phonebook-related. Only the SET form (AT+CMD=arg1,arg2,...) is accepted;
// a query (AT+CMD=?) or an unrecognised command name is rejected with
// ERROR. XAPL additionally gets a synthesized reply advertising
// battery-level reporting support before the broadcast goes out.
func (m *Machine) processVendorSpecificAt(atString string) {
	eq := strings.IndexByte(atString, '=')
	if eq == -1 {
		m.log.Errorf("processVendorSpecificAt: command type error in %s", atString)
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}
	command := atString[:eq]
	companyID, ok := vendorCommandCompanyID[command]
	if !ok {
		m.log.Errorf("processVendorSpecificAt: unsupported command: %s", atString)
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}
	arg := atString[eq+1:]
	if strings.HasPrefix(arg, "?") {
		m.log.Errorf("processVendorSpecificAt: command type error in %s", atString)
		m.native.AtResponseCode(m.peer, AtResponseError, 0)
		return
	}
	args := generateArgs(arg)
	if command == "+XAPL" {
		m.processAtXapl(args)
	}
	m.broadcastVendorSpecificEvent(command, companyID, args)
	m.native.AtResponseCode(m.peer, AtResponseOk, 0)
}

// processAtXapl replies to AT+XAPL=<vendor>,<features> advertising
// battery-level reporting support (feature bit 2) and nothing else.
func (m *Machine) processAtXapl(args []atArg) {
	if len(args) != 2 {
		m.log.Warnf("processAtXapl() args length must be 2: %d", len(args))
		return
	}
	if args[0].isInt || !args[1].isInt {
		m.log.Warn("processAtXapl() argument types not match")
		return
	}
	m.native.AtResponseString(m.peer, "+XAPL=iPhone,2")
}

func (m *Machine) broadcastVendorSpecificEvent(command string, companyID int, args []atArg) {
	anyArgs := make([]any, len(args))
	for i, a := range args {
		if a.isInt {
			anyArgs[i] = a.intVal
		} else {
			anyArgs[i] = a.str
		}
	}
	m.service.SendBroadcast(BroadcastEvent{
		Kind:      BroadcastVendorSpecific,
		Peer:      m.peer,
		Command:   command,
		CompanyID: companyID,
		Args:      anyArgs,
	})
}
