package contract

// ownedABI describes the storage contract that records an owner, restricts
// writes to that owner and emits NumberStored on every write.
//
//	retrieve()                  view returns (uint256)
//	store(uint256 num)
//	owner()                     view returns (address)
//	transferOwnership(address newOwner)
//	event NumberStored(uint256 num)
const ownedABI = `[
	{
		"inputs": [],
		"name": "retrieve",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "num", "type": "uint256"}],
		"name": "store",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "newOwner", "type": "address"}],
		"name": "transferOwnership",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [{"indexed": false, "internalType": "uint256", "name": "num", "type": "uint256"}],
		"name": "NumberStored",
		"type": "event"
	}
]`

// basicABI describes the plain storage contract: anyone may write and no
// events are emitted.
//
//	retrieve()                  view returns (uint256)
//	store(uint256 num)
const basicABI = `[
	{
		"inputs": [],
		"name": "retrieve",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "num", "type": "uint256"}],
		"name": "store",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
