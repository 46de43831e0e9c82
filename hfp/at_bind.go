package hfp

// HF indicator IDs recognised by AT+BIND/AT+BIEV, per the Bluetooth HFP
// Hands-Free Indicators assigned numbers.
const (
	HfIndicatorEnhancedDriverSafety = 1
	HfIndicatorBatteryLevelStatus   = 2
)

// processAtBind handles AT+BIND=<id>[,<id>...], the list of HF-indicator
// IDs the peer supports. Each recognised ID is broadcast with value -1
// ("supported, no value yet"); unrecognised IDs are logged and dropped.
func (m *Machine) processAtBind(atString string) {
	iter := 0
	for iter < len(atString) {
		end := findChar(',', atString, iter)
		id, err := parseIndicatorID(atString[iter:end])
		if err == nil {
			switch id {
			case HfIndicatorEnhancedDriverSafety, HfIndicatorBatteryLevelStatus:
				m.sendIndicatorIntent(id, -1)
			default:
				m.log.Debugf("invalid HF indicator received: %d", id)
			}
		}
		iter = end + 1
	}
}

// processAtBiev handles AT+BIEV=<id>,<value>, a single indicator value
// update from the peer.
func (m *Machine) processAtBiev(indID, indValue int) {
	m.sendIndicatorIntent(indID, indValue)
}

func (m *Machine) sendIndicatorIntent(indID, indValue int) {
	m.hfIndicators[indID] = indValue
	m.service.SendBroadcast(BroadcastEvent{
		Kind:           BroadcastIndicatorValueChanged,
		Peer:           m.peer,
		IndicatorID:    indID,
		IndicatorValue: indValue,
	})
}

func parseIndicatorID(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errNotDigits
		}
		n = n*10 + int(s[i]-'0')
	}
	if s == "" {
		return 0, errNotDigits
	}
	return n, nil
}
