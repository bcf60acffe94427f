package contract

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// collectionABIJSON covers the ERC-721 surface plus the collection
// extensions (mint variants, burn, base URI, pausing, ownership) and the
// custom errors the Stylus contract reverts with.
const collectionABIJSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"baseUri","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"getApproved","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"isApprovedForAll","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"approved","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]},
  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"mintTo","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
  {"type":"function","name":"safeMint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"}],"outputs":[]},
  {"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setBaseUri","stateMutability":"nonpayable","inputs":[{"name":"baseUri","type":"string"}],"outputs":[]},
  {"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]},
  {"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"approved","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]},
  {"type":"event","name":"ApprovalForAll","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"operator","type":"address","indexed":true},{"name":"approved","type":"bool","indexed":false}]},
  {"type":"error","name":"AlreadyInitialized","inputs":[]},
  {"type":"error","name":"ExternalCallFailed","inputs":[]},
  {"type":"error","name":"InvalidTokenId","inputs":[{"name":"tokenId","type":"uint256"}]},
  {"type":"error","name":"NotOwner","inputs":[{"name":"from","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"realOwner","type":"address"}]},
  {"type":"error","name":"NotApproved","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"},{"name":"tokenId","type":"uint256"}]},
  {"type":"error","name":"TransferToZero","inputs":[{"name":"tokenId","type":"uint256"}]},
  {"type":"error","name":"ReceiverRefused","inputs":[{"name":"receiver","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"returned","type":"bytes4"}]},
  {"type":"error","name":"EnforcedPause","inputs":[]},
  {"type":"error","name":"ExpectedPause","inputs":[]},
  {"type":"error","name":"OwnableUnauthorizedAccount","inputs":[{"name":"account","type":"address"}]}
]`

const factoryABIJSON = `[
  {"type":"function","name":"createCollection","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"baseUri","type":"string"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"registerCollection","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"}],"outputs":[]},
  {"type":"function","name":"getAllDeployedCollections","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"getCollectionInfo","stateMutability":"view","inputs":[{"name":"collection","type":"address"}],"outputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"owner","type":"address"},{"name":"createdAt","type":"uint256"}]},
  {"type":"function","name":"getTotalCollectionsDeployed","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"CollectionCreated","anonymous":false,"inputs":[{"name":"collection","type":"address","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"name","type":"string","indexed":false},{"name":"symbol","type":"string","indexed":false}]},
  {"type":"error","name":"AlreadyInitialized","inputs":[]},
  {"type":"error","name":"ExternalCallFailed","inputs":[]}
]`

var (
	collectionABI = sync.OnceValue(func() abi.ABI { return mustParse(collectionABIJSON) })
	factoryABI    = sync.OnceValue(func() abi.ABI { return mustParse(factoryABIJSON) })
)

// CollectionABI returns the parsed collection ABI.
func CollectionABI() abi.ABI { return collectionABI() }

// FactoryABI returns the parsed factory ABI.
func FactoryABI() abi.ABI { return factoryABI() }

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contract: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
