package evm

import "context"

type slotUpdate struct {
	at    decodedEvent
	value string
}

// GroupMembers replays MemberAdded in order, applying the latest MemberUpdated or
// MemberRemoved per leaf index. Removed leaves hold the group's zero value.
func (s *Source) GroupMembers(ctx context.Context, network, id string) ([]string, error) {
	gid, err := parseGroupID(id)
	if err != nil {
		return nil, err
	}
	c, n, err := s.client(ctx, network)
	if err != nil {
		return nil, err
	}

	created, err := s.created(ctx, c, n, gid)
	if err != nil {
		return nil, err
	}
	zeroValue := bigString(created["zeroValue"])

	updated, err := s.events(ctx, c, n, eventMemberUpdated, gid)
	if err != nil {
		return nil, err
	}
	removed, err := s.events(ctx, c, n, eventMemberRemoved, gid)
	if err != nil {
		return nil, err
	}

	slots := map[string]slotUpdate{}
	apply := func(ev decodedEvent, value string) {
		idx := bigString(ev.args["index"])
		if cur, ok := slots[idx]; ok && !cur.at.before(ev) {
			return
		}
		slots[idx] = slotUpdate{at: ev, value: value}
	}
	for _, ev := range updated {
		apply(ev, bigString(ev.args["newIdentityCommitment"]))
	}
	for _, ev := range removed {
		apply(ev, zeroValue)
	}

	added, err := s.events(ctx, c, n, eventMemberAdded, gid)
	if err != nil {
		return nil, err
	}

	members := make([]string, 0, len(added))
	for _, ev := range added {
		if u, ok := slots[bigString(ev.args["index"])]; ok {
			members = append(members, u.value)
			continue
		}
		members = append(members, bigString(ev.args["identityCommitment"]))
	}
	return members, nil
}
