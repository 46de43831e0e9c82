package hfp

// broadcastIfChanged reports the connection/audio state delta for a
// from->to transition to the owning Service, mirroring
// broadcastStateTransitions/broadcastAudioState in the machine this was
// modelled on. Only the state families that actually moved are reported:
// a Connected->AudioConnecting move reports an audio change but not a
// connection change, since ConnectionState collapses every Connected*
// sub-state to "connected".
//
// AudioOn and AudioDisconnecting both report AudioStateConnected (see
// stateID.audioState), so that edge is special-cased below: the audio
// event still fires even though the reported integer doesn't change,
// because the original machine calls broadcastAudioState unconditionally
// on every ConnectedBase transition rather than gating it on the public
// value actually moving.
func (m *Machine) broadcastIfChanged(from, to stateID) {
	as0, as1 := from.audioState(), to.audioState()
	sameValueDisconnectEdge := (from == stateAudioOn && to == stateAudioDisconnecting) ||
		(from == stateAudioDisconnecting && to == stateAudioOn)
	if as0 != as1 || sameValueDisconnectEdge {
		m.service.OnAudioStateChanged(m.peer, as0, as1)
	}
	if cs0, cs1 := from.connectionState(), to.connectionState(); cs0 != cs1 {
		m.service.OnConnectionStateChanged(m.peer, cs0, cs1)
	}
}
