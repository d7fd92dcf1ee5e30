// Copyright 1999-2020 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"errors"
	"fmt"
)

// BlockType enumerates the reasons a slot may reject an entry.
type BlockType uint8

const (
	BlockTypeFlow BlockType = iota
	BlockTypeDegrade
	BlockTypeAuthority
	BlockTypeSystemFlow
	BlockTypeParamFlow
)

func (b BlockType) String() string {
	switch b {
	case BlockTypeFlow:
		return "FlowException"
	case BlockTypeDegrade:
		return "DegradeException"
	case BlockTypeAuthority:
		return "AuthorityException"
	case BlockTypeSystemFlow:
		return "SystemBlockException"
	case BlockTypeParamFlow:
		return "ParamFlowException"
	default:
		return "Unknown"
	}
}

// BlockError is the uniform rejection outcome surfaced by SphU.Entry. It
// carries enough context (rule, limiting origin) for fallback logic to
// make a decision, and satisfies the error interface so it composes with
// normal Go error handling.
type BlockError struct {
	blockType   BlockType
	blockMsg    string
	rule        Rule
	snapshotVal interface{}
}

func NewBlockError(blockType BlockType, blockMsg string, rule Rule) *BlockError {
	return &BlockError{blockType: blockType, blockMsg: blockMsg, rule: rule}
}

func NewBlockErrorWithSnapshot(blockType BlockType, blockMsg string, rule Rule, snapshot interface{}) *BlockError {
	return &BlockError{blockType: blockType, blockMsg: blockMsg, rule: rule, snapshotVal: snapshot}
}

func (e *BlockError) BlockType() BlockType       { return e.blockType }
func (e *BlockError) BlockMsg() string           { return e.blockMsg }
func (e *BlockError) TriggeredRule() Rule        { return e.rule }
func (e *BlockError) TriggeredValue() interface{} { return e.snapshotVal }

func (e *BlockError) Error() string {
	if e.blockMsg == "" {
		return fmt.Sprintf("SentinelBlockError: %s", e.blockType.String())
	}
	return fmt.Sprintf("SentinelBlockError: %s, message: %s", e.blockType.String(), e.blockMsg)
}

// IsBlockError reports whether err is (or wraps) a *BlockError.
func IsBlockError(err error) bool {
	var be *BlockError
	return errors.As(err, &be)
}
