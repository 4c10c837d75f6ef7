package services

import "errors"

var (
	ErrIdeaNotFound     = errors.New("idea not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrSlotNotFound     = errors.New("role slot not found")
	ErrSlotOccupied     = errors.New("role slot still has assigned members")
	ErrRoleExists       = errors.New("a slot for this role already exists")
	ErrApproachNotFound = errors.New("approach not found")
	ErrAlreadyMember    = errors.New("user is already on the team")
	ErrRowBusy          = errors.New("another action is already in progress for this row")
)
